package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/feedback"
	"github.com/spigell/interview-coach/internal/resume"
	"github.com/spigell/interview-coach/internal/session"
	"github.com/spigell/interview-coach/internal/setup"
)

const (
	PromptStart        = "Start Interview Prep"
	PromptLogin        = "Login"
	PromptSignup       = "Sign up"
	PromptToSignup     = "New here? Sign up"
	PromptToLogin      = "Already have an account? Login"
	PromptPreset       = "Choose a job profile"
	PromptManual       = "Enter job details manually"
	PromptUpload       = "Upload a PDF resume"
	PromptSkip         = "Skip"
	PromptBack         = "Back"
	PromptHome         = "Home"
	PromptQuit         = "Quit"
	PromptPracticeMore = "Practice again"
	PromptAcknowledge  = "Back to home"

	commandEnd  = "/end"
	commandHome = "/home"
)

var errExit = errors.New("exit requested")

var (
	titleStyle       = lipgloss.NewStyle().Bold(true)
	interviewerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	candidateStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	warningStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run a mock interview in the terminal",
	Run: func(_ *cobra.Command, _ []string) {
		interview()
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)
}

// terminal drives one orchestrator through promptui screens.
type terminal struct {
	orchestrator *session.Orchestrator
	setup        *setup.Aggregator
	intake       *resume.Intake
	logger       *zap.Logger

	// printed counts transcript messages already written to the screen
	printed int
}

func interview() {
	ctx := context.Background()

	d := mustDeps(ctx, "interview")

	t := &terminal{
		orchestrator: session.New("terminal", d.interviewer, d.logger),
		setup:        d.setup,
		intake:       resume.NewIntake(d.logger),
		logger:       d.logger,
	}

	if err := t.run(ctx); err != nil {
		if errors.Is(err, errExit) {
			return
		}
		d.logger.Fatal("exiting", zap.Error(err))
	}
}

func (t *terminal) run(ctx context.Context) error {
	o := t.orchestrator

	for {
		snap := o.Snapshot()

		var err error
		switch snap.State {
		case session.StateLanding:
			err = t.landing(o)
		case session.StateLogin:
			err = t.login(o, o)
		case session.StateSignup:
			err = t.signup(o, o)
		case session.StateSetup:
			err = t.jobDetails(ctx, o, o)
		case session.StateResumeUpload:
			err = t.resumeUpload(ctx, o, o)
		case session.StateInterview:
			err = t.interview(ctx, o, o, snap)
		case session.StateFeedback:
			err = t.feedback(o, o, snap)
		case session.StateError:
			err = t.failure(o, snap)
		default:
			err = fmt.Errorf("unexpected state %s", snap.State)
		}

		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return errExit
			}
			return err
		}
	}
}

func (t *terminal) landing(screen session.LandingScreen) error {
	fmt.Println(titleStyle.Render("Ace your next interview with an AI interviewer."))

	action, err := choose("What would you like to do?", PromptStart, PromptLogin, PromptQuit)
	if err != nil {
		return err
	}

	switch action {
	case PromptStart:
		return screen.Start()
	case PromptLogin:
		return screen.GoToLogin()
	default:
		return errExit
	}
}

func (t *terminal) login(screen session.LoginScreen, nav session.Navigator) error {
	action, err := choose("Login", PromptLogin, PromptToSignup, PromptHome)
	if err != nil {
		return err
	}

	switch action {
	case PromptLogin:
		return screen.Login()
	case PromptToSignup:
		return screen.GoToSignup()
	default:
		nav.Home()
		return nil
	}
}

func (t *terminal) signup(screen session.SignupScreen, nav session.Navigator) error {
	action, err := choose("Sign up", PromptSignup, PromptToLogin, PromptHome)
	if err != nil {
		return err
	}

	switch action {
	case PromptSignup:
		return screen.Signup()
	case PromptToLogin:
		return screen.GoToLogin()
	default:
		nav.Home()
		return nil
	}
}

func (t *terminal) jobDetails(ctx context.Context, screen session.SetupScreen, nav session.Navigator) error {
	action, err := choose("Tell us about the job", PromptPreset, PromptManual, PromptHome)
	if err != nil {
		return err
	}

	var form setup.Form
	switch action {
	case PromptPreset:
		presets := t.setup.Presets()
		labels := make([]string, 0, len(presets))
		for _, p := range presets {
			labels = append(labels, p.Title)
		}
		idx, _, err := (&promptui.Select{Label: "Job profile", Items: labels}).Run()
		if err != nil {
			return err
		}
		form = setup.Form{Mode: setup.ModePreset, PresetID: presets[idx].ID}
	case PromptManual:
		title, err := ask("Job Title")
		if err != nil {
			return err
		}
		description, err := ask("Job Description")
		if err != nil {
			return err
		}
		form = setup.Form{Mode: setup.ModeManual, JobTitle: title, JobDescription: description}
	default:
		nav.Home()
		return nil
	}

	details, err := t.setup.Submit(form)
	if err != nil {
		var validation *setup.ValidationError
		if errors.As(err, &validation) {
			fmt.Println(warningStyle.Render(validation.Message))
			return nil
		}
		return err
	}

	fmt.Println("Preparing your interview...")
	return screen.SubmitJobDetails(ctx, details)
}

func (t *terminal) resumeUpload(ctx context.Context, screen session.ResumeScreen, nav session.Navigator) error {
	action, err := choose("Upload your resume (PDF)", PromptUpload, PromptSkip, PromptBack, PromptHome)
	if err != nil {
		return err
	}

	var label string
	switch action {
	case PromptUpload:
		path, err := ask("Path to resume")
		if err != nil {
			return err
		}
		label, err = t.intake.FromFile(path)
		if err != nil {
			t.logger.Debug("resume rejected", zap.Error(err))
			fmt.Println(warningStyle.Render(resume.UserMessage(err)))
			return nil
		}
	case PromptSkip:
		label = resume.Skip()
	case PromptBack:
		return screen.Back()
	default:
		nav.Home()
		return nil
	}

	fmt.Println("Preparing your interview...")
	return screen.SubmitResume(ctx, label)
}

func (t *terminal) interview(ctx context.Context, screen session.InterviewScreen, nav session.Navigator, snap session.Snapshot) error {
	if t.printed == 0 {
		fmt.Println(titleStyle.Render(snap.JobTitle()))
		fmt.Printf("Type your answer. %s finishes the interview, %s leaves it.\n", commandEnd, commandHome)
	}
	t.printTranscript(snap.Messages)

	answer, err := (&promptui.Prompt{Label: "You"}).Run()
	if err != nil {
		return err
	}

	switch strings.TrimSpace(answer) {
	case commandEnd:
		fmt.Println("Generating your feedback...")
		return screen.EndInterview(ctx)
	case commandHome:
		nav.Home()
		t.printed = 0
		return nil
	}

	err = screen.SendTurn(ctx, answer)
	if errors.Is(err, session.ErrEmptyMessage) {
		return nil
	}
	if err == nil {
		// the answer was echoed by the prompt already
		t.printed++
	}
	return err
}

func (t *terminal) feedback(screen session.FeedbackScreen, nav session.Navigator, snap session.Snapshot) error {
	t.printed = 0
	fmt.Println(feedback.Render(snap.Feedback))

	action, err := choose("What next?", PromptPracticeMore, PromptHome, PromptQuit)
	if err != nil {
		return err
	}

	switch action {
	case PromptPracticeMore:
		return screen.Restart()
	case PromptHome:
		nav.Home()
		return nil
	default:
		return errExit
	}
}

func (t *terminal) failure(screen session.ErrorScreen, snap session.Snapshot) error {
	t.printed = 0
	fmt.Println(errorStyle.Render(snap.Error))

	if _, err := choose("An error occurred", PromptAcknowledge); err != nil {
		return err
	}
	return screen.Acknowledge()
}

func (t *terminal) printTranscript(messages []ai.Message) {
	if t.printed > len(messages) {
		t.printed = 0
	}
	for _, m := range messages[t.printed:] {
		if m.Role == ai.RoleUser {
			fmt.Printf("%s %s\n", candidateStyle.Render("You:"), m.Text)
			continue
		}
		fmt.Printf("%s %s\n", interviewerStyle.Render("Interviewer:"), m.Text)
	}
	t.printed = len(messages)
}

func choose(label string, items ...string) (string, error) {
	_, action, err := (&promptui.Select{Label: label, Items: items}).Run()
	return action, err
}

func ask(label string) (string, error) {
	return (&promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("required")
			}
			return nil
		},
	}).Run()
}

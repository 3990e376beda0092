package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/stemsi/surveylab/internal/model"
	"github.com/stemsi/surveylab/internal/service"
	"github.com/stemsi/surveylab/internal/wizard"
)

const barWidth = 40

// errQuit ends the session loop normally.
var errQuit = errors.New("quit")

type passwordReader func(r *bufio.Reader) (string, error)

// app is the terminal front end. It only prompts and prints; every state
// change goes through the wizard service.
type app struct {
	auth         *service.AuthService
	wizard       *service.WizardService
	in           *bufio.Reader
	out          io.Writer
	readPassword passwordReader
	sessionID    string
}

func newApp(auth *service.AuthService, wiz *service.WizardService, in *bufio.Reader, out io.Writer, pw passwordReader) *app {
	return &app{auth: auth, wizard: wiz, in: in, out: out, readPassword: pw}
}

func (a *app) run(ctx context.Context) error {
	fmt.Fprintln(a.out, "=== SurveyLab ===")

	if err := a.login(ctx); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	for ctx.Err() == nil {
		sess, err := a.wizard.Session(ctx, a.sessionID)
		if err != nil {
			return err
		}
		if err := a.step(ctx, sess); err != nil {
			if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
				fmt.Fprintln(a.out, "Goodbye.")
				return nil
			}
			return err
		}
	}
	return nil
}

// login prompts until a credential pair is accepted.
func (a *app) login(ctx context.Context) error {
	for {
		user, err := a.prompt("Username: ")
		if err != nil {
			return err
		}
		fmt.Fprint(a.out, "Password: ")
		pass, err := a.readPassword(a.in)
		if err != nil {
			return err
		}

		_, sess, err := a.auth.Login(ctx, user, pass)
		if errors.Is(err, service.ErrInvalidCredentials) {
			fmt.Fprintln(a.out, "Invalid credentials.")
			continue
		}
		if err != nil {
			return err
		}
		a.sessionID = sess.ID
		fmt.Fprintf(a.out, "Welcome, %s!\n", sess.CurrentUser)
		return nil
	}
}

func (a *app) step(ctx context.Context, sess *model.Session) error {
	switch sess.CurrentStep {
	case model.StepNone:
		return a.chooseMode(ctx, sess)
	case model.StepTitle:
		return a.textStep(ctx, "Survey title: ", func(s string) wizard.Event { return wizard.SaveTitle{Title: s} })
	case model.StepDescription:
		return a.textStep(ctx, "Survey description: ", func(s string) wizard.Event { return wizard.SaveDescription{Description: s} })
	case model.StepVariations:
		return a.variationsStep(ctx)
	case model.StepAnalysis:
		return a.analysisStep(ctx)
	default:
		return fmt.Errorf("unknown step %q", sess.CurrentStep)
	}
}

func (a *app) chooseMode(ctx context.Context, sess *model.Session) error {
	if sess.SelectedSurvey != "" {
		if sv, ok := sess.Surveys[sess.SelectedSurvey]; ok {
			a.printSurvey(sv)
		}
	}

	fmt.Fprintln(a.out, "\n1) Create a new survey\n2) Select an existing survey\nq) Quit")
	choice, err := a.prompt("> ")
	if err != nil {
		return err
	}

	switch strings.ToLower(choice) {
	case "1":
		id, err := a.prompt("New survey ID: ")
		if err != nil {
			return err
		}
		return a.apply(ctx, wizard.CreateSurvey{SurveyID: id})
	case "2":
		if ids := sess.SurveyIDs(); len(ids) > 0 {
			fmt.Fprintf(a.out, "Surveys: %s\n", strings.Join(ids, ", "))
		}
		id, err := a.prompt("Survey ID: ")
		if err != nil {
			return err
		}
		return a.apply(ctx, wizard.SelectSurvey{SurveyID: id})
	case "q":
		return errQuit
	default:
		fmt.Fprintln(a.out, "Please choose 1, 2 or q.")
		return nil
	}
}

func (a *app) textStep(ctx context.Context, label string, build func(string) wizard.Event) error {
	text, err := a.prompt(label)
	if err != nil {
		return err
	}
	return a.apply(ctx, build(text))
}

func (a *app) variationsStep(ctx context.Context) error {
	raw, err := a.prompt("Variations (comma-separated): ")
	if err != nil {
		return err
	}
	save, err := a.confirm("Save variations?", true)
	if err != nil {
		return err
	}
	audience, err := a.choose("Target audience", []string{
		string(model.AudienceExistingCustomers),
		string(model.AudienceNewUsers),
	})
	if err != nil {
		return err
	}
	channel, err := a.choose("Distribution channel", []string{
		string(model.ChannelEmail),
		string(model.ChannelSocialMedia),
		string(model.ChannelWebsite),
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Deploying survey and simulating participants...")
	return a.apply(ctx, wizard.Deploy{
		Variations: raw,
		Save:       save,
		Audience:   model.Audience(audience),
		Channel:    model.Channel(channel),
	})
}

func (a *app) analysisStep(ctx context.Context) error {
	fmt.Fprintln(a.out, "\nr) Re-run analysis\nn) Start a new survey\nq) Quit")
	choice, err := a.prompt("> ")
	if err != nil {
		return err
	}
	switch strings.ToLower(choice) {
	case "r":
		return a.apply(ctx, wizard.Reanalyze{})
	case "n":
		return a.apply(ctx, wizard.Restart{})
	case "q":
		return errQuit
	default:
		fmt.Fprintln(a.out, "Please choose r, n or q.")
		return nil
	}
}

// apply runs an event. Domain errors are shown and the step is re-prompted.
func (a *app) apply(ctx context.Context, ev wizard.Event) error {
	res, err := a.wizard.Apply(ctx, a.sessionID, ev)
	if err != nil {
		if msg, ok := userMessage(err); ok {
			fmt.Fprintln(a.out, msg)
			return nil
		}
		return err
	}

	switch ev.(type) {
	case wizard.SaveTitle:
		fmt.Fprintln(a.out, "Title saved.")
	case wizard.SaveDescription:
		fmt.Fprintln(a.out, "Description saved.")
	}
	if res.Report != nil {
		a.printReport(res.Report)
	}
	return nil
}

func userMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, wizard.ErrBlankInput):
		return "Input must not be empty.", true
	case errors.Is(err, wizard.ErrSurveyExists):
		return "Survey ID already exists. Choose a different ID.", true
	case errors.Is(err, wizard.ErrNoSurveys):
		return "No surveys available.", true
	case errors.Is(err, wizard.ErrSurveyNotFound):
		return "Survey not found.", true
	case errors.Is(err, wizard.ErrNoVariations):
		return "The survey has no variations. Enter some and choose to save them.", true
	case errors.Is(err, wizard.ErrInvalidStep):
		return "That action is not available right now.", true
	default:
		return "", false
	}
}

func (a *app) printSurvey(sv *model.Survey) {
	fmt.Fprintf(a.out, "\nSurvey %s\n  Title: %s\n  Description: %s\n  Variations: %s\n",
		sv.ID, sv.Title, sv.Description, strings.Join(sv.Variations, ", "))
	if sv.Report != nil {
		a.printReport(sv.Report)
	}
}

func (a *app) printReport(r *model.AnalysisReport) {
	fmt.Fprintf(a.out, "\nAnalysis of %q (%d participants)\n", r.Title, r.Participants)

	fmt.Fprintln(a.out, "Completion rates:")
	for _, v := range sortedKeys(r.CompletionRates) {
		fmt.Fprintf(a.out, "  %-20s %6.2f%%\n", v, r.CompletionRates[v])
	}
	fmt.Fprintln(a.out, "Average response quality:")
	for _, v := range sortedKeys(r.AverageQuality) {
		fmt.Fprintf(a.out, "  %-20s %.4f\n", v, r.AverageQuality[v])
	}

	fmt.Fprintf(a.out, "Model R² score: %.4f\n", r.R2Score)
	fmt.Fprintf(a.out, "Best performing variation: %s\n", r.BestVariation)
	fmt.Fprintf(a.out, "Optimized variation: %s\n", r.OptimizedVariation)

	a.printBars(r.Dashboard.CompletionCounts)
	a.printBars(r.Dashboard.AverageQuality)

	fmt.Fprintf(a.out, "\n%s\n", r.Dashboard.QualitySpread.Title)
	for _, s := range r.Dashboard.QualitySpread.Series {
		fmt.Fprintf(a.out, "  %-20s min %.3f  q1 %.3f  med %.3f  q3 %.3f  max %.3f\n",
			s.Name, s.Min, s.Q1, s.Median, s.Q3, s.Max)
	}
}

func (a *app) printBars(chart model.BarChart) {
	fmt.Fprintf(a.out, "\n%s\n", chart.Title)
	peak := 0.0
	for _, v := range chart.Values {
		if v > peak {
			peak = v
		}
	}
	for i, label := range chart.Labels {
		n := 0
		if peak > 0 {
			n = int(chart.Values[i] / peak * barWidth)
		}
		fmt.Fprintf(a.out, "  %-20s %s %g\n", label, strings.Repeat("█", n), chart.Values[i])
	}
}

// ─── Input helpers ─────────────────────────────────────────────────────

func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	return readLine(a.in)
}

func (a *app) confirm(label string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	ans, err := a.prompt(fmt.Sprintf("%s %s ", label, hint))
	if err != nil {
		return false, err
	}
	switch strings.ToLower(ans) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// choose lists options and returns the picked one; empty input picks the first.
func (a *app) choose(label string, options []string) (string, error) {
	fmt.Fprintf(a.out, "%s:\n", label)
	for i, o := range options {
		fmt.Fprintf(a.out, "  %d) %s\n", i+1, o)
	}
	for {
		ans, err := a.prompt("> ")
		if err != nil {
			return "", err
		}
		if ans == "" {
			return options[0], nil
		}
		var n int
		if _, err := fmt.Sscanf(ans, "%d", &n); err == nil && n >= 1 && n <= len(options) {
			return options[n-1], nil
		}
		fmt.Fprintf(a.out, "Please choose 1-%d.\n", len(options))
	}
}

// readLine returns the next trimmed line. A final line without newline is
// returned before io.EOF.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

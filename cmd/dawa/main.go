// Package main provides dawa, the terminal front-end for DawaPahchan.
// It drives the same scan flow as the app: enter a patient profile,
// photograph a medicine package, submit it and read the Urdu report.
package main

import (
	"bufio"
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/dawapahchan/dawapahchan/internal/analysis"
	"github.com/dawapahchan/dawapahchan/internal/app"
	"github.com/dawapahchan/dawapahchan/internal/profile"
	"github.com/dawapahchan/dawapahchan/internal/upstream"
	"github.com/dawapahchan/dawapahchan/internal/urdu"
)

// Version is set at compile time via ldflags.
var Version = "dev"

// toastPrinter shows toasts on the terminal.
type toastPrinter struct{}

func (toastPrinter) Show(t app.Toast) {
	if t.FocusField != "" {
		fmt.Printf("  [%s] %s\n", t.FocusField, t.Message)
		return
	}
	fmt.Printf("  %s\n", t.Message)
}

// gatewayConnectivity treats the gateway's liveness endpoint as the
// online/offline signal.
type gatewayConnectivity struct {
	baseURL string
	client  *http.Client
}

func (c gatewayConnectivity) Online() bool {
	resp, err := c.client.Get(c.baseURL + "/ops/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func main() {
	_ = godotenv.Load()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.WarnLevel)
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && os.Getenv("LOG_LEVEL") != "" {
		log = log.Level(lvl)
	}

	gatewayURL := os.Getenv("GATEWAY_URL")
	if gatewayURL == "" {
		gatewayURL = "http://localhost:8080"
	}
	deviceID := os.Getenv("DEVICE_ID")
	if deviceID == "" {
		deviceID = uuid.NewString()
	}

	httpClient := upstream.NewClient(upstream.DefaultConfig("gateway"))

	orch := app.New(context.Background(), app.Config{
		Store:    profile.NewHTTPStore(gatewayURL, deviceID, httpClient),
		Analyzer: analysis.NewClient(analysis.ClientConfig{BaseURL: gatewayURL, Logger: log}),
		Connectivity: gatewayConnectivity{
			baseURL: gatewayURL,
			client:  &http.Client{Timeout: 2 * time.Second},
		},
		Notifier: toastPrinter{},
		Logger:   log,
	})

	fmt.Printf("dawa %s (gateway %s)\n", Version, gatewayURL)
	fmt.Println(`type "help" for commands`)
	render(orch.State())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		switch fields[0] {
		case "help":
			printHelp()
		case "state":
			render(orch.State())
		case "profile":
			render(saveProfile(ctx, orch, fields[1:]))
		case "edit":
			render(orch.ShowProfileEditor())
		case "scan":
			render(submitFile(ctx, orch.SubmitImage, fields[1:]))
		case "rescan":
			render(submitFile(ctx, orch.Rescan, fields[1:]))
		case "home":
			render(orch.GoHome())
		case "toggle":
			if len(fields) < 2 {
				fmt.Println("usage: toggle <authenticity|safety|dosage>")
				break
			}
			render(orch.ToggleDetails(fields[1]))
		case "quit", "exit":
			cancel()
			return
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
		cancel()
	}
}

func printHelp() {
	fmt.Println(`commands:
  profile <age> <gender> [weight] [pregnant y/n] [allergies]
  edit                 reopen the profile form
  scan <image-file>    submit a package photo for analysis
  rescan <image-file>  scan another package from the results screen
  toggle <section>     expand/collapse section details on the results screen
  home                 back to the home screen
  state                reprint the current screen
  quit`)
}

func saveProfile(ctx context.Context, orch *app.Orchestrator, args []string) app.UIState {
	in := profile.Input{}
	if len(args) > 0 {
		in.Age = args[0]
	}
	if len(args) > 1 {
		in.Gender = args[1]
	}
	if len(args) > 2 {
		in.Weight = args[2]
	}
	if len(args) > 3 {
		in.Pregnant = args[3] == "y" || args[3] == "yes"
	}
	if len(args) > 4 {
		in.Allergies = strings.Join(args[4:], " ")
	}
	return orch.SaveProfile(ctx, in)
}

func submitFile(ctx context.Context, submit func(context.Context, app.Image) app.UIState, args []string) app.UIState {
	if len(args) < 1 {
		fmt.Println("usage: scan <image-file>")
		return app.UIState{}
	}

	f, err := os.Open(args[0])
	if err != nil {
		fmt.Printf("cannot open %s: %v\n", args[0], err)
		return app.UIState{}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		fmt.Printf("cannot stat %s: %v\n", args[0], err)
		return app.UIState{}
	}

	mediaType := mime.TypeByExtension(filepath.Ext(args[0]))
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}

	return submit(ctx, app.Image{
		Name:      filepath.Base(args[0]),
		MediaType: mediaType,
		Size:      info.Size(),
		Reader:    f,
	})
}

func render(state app.UIState) {
	if state.Screen == "" {
		return
	}

	switch state.Screen {
	case app.ScreenProfile:
		fmt.Println("[profile] enter the patient profile (see: help)")
	case app.ScreenHome:
		fmt.Println("[home] ready to scan a medicine package")
	case app.ScreenLoading:
		fmt.Println("[loading] analyzing...")
	case app.ScreenResults:
		renderResult(state)
	}
}

func renderResult(state app.UIState) {
	r := state.Result
	if r == nil {
		return
	}

	fmt.Println("[results]")
	if r.IsError() {
		msg := r.ErrorMessageUrdu
		if msg == "" {
			msg = urdu.T(urdu.NotIdentified)
		}
		fmt.Printf("  ✗ %s\n", msg)
		return
	}

	name := r.MedicineName
	if name == "" {
		name = urdu.T(urdu.UnknownMedicine)
	}
	fmt.Printf("  %s\n", name)
	if r.ExplanationUrdu != "" {
		fmt.Printf("  %s\n", r.ExplanationUrdu)
	}

	renderSection("authenticity", r.Authenticity, state.Expanded["authenticity"])
	renderSection("safety", r.Safety, state.Expanded["safety"])
	renderDosage(r.Dosage, state.Expanded["dosage"])
}

func renderSection(name string, s *analysis.Section, expanded bool) {
	fmt.Printf("  %s %s", severityMark(s.Severity()), name)
	if s == nil {
		fmt.Printf(": %s\n", urdu.T(urdu.NoInformation))
		return
	}
	if s.LabelUrdu != "" {
		fmt.Printf(": %s", s.LabelUrdu)
	}
	fmt.Println()

	for _, reason := range s.ReasonsUrdu {
		fmt.Printf("      - %s\n", reason)
	}
	for _, warning := range s.WarningsUrdu {
		fmt.Printf("      ! %s\n", warning)
	}
	if expanded && s.Details != "" {
		fmt.Printf("      %s\n", s.Details)
	}
}

func renderDosage(d *analysis.Dosage, expanded bool) {
	if d == nil || d.RecommendationUrdu == "" {
		fmt.Printf("    dosage: %s\n", urdu.T(urdu.ConsultDoctor))
		return
	}
	fmt.Printf("    dosage: %s\n", d.RecommendationUrdu)
	if expanded && d.Details != "" {
		fmt.Printf("      %s\n", d.Details)
	}
}

func severityMark(s analysis.Severity) string {
	switch s {
	case analysis.SeveritySafe:
		return "✓"
	case analysis.SeverityDanger:
		return "✗"
	default:
		return "!"
	}
}

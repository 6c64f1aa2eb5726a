package main

// Run extraction, link harvesting and optionally both completions against a local file:
//   go run ./cmd/prompttest -resume ./testdata/resume.pdf -complete

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"resume-processor/internal/bootstrap"
	"resume-processor/internal/extract"
	"resume-processor/internal/harvest"
	"resume-processor/internal/llm"
	"resume-processor/internal/resumes"
	"resume-processor/internal/shared/config"
)

type report struct {
	File           string         `json:"file"`
	Document       extract.Result `json:"document"`
	URLs           harvest.Result `json:"urls"`
	Provider       string         `json:"provider,omitempty"`
	Model          string         `json:"model,omitempty"`
	PromptVersion  string         `json:"promptVersion"`
	Summary        string         `json:"summary,omitempty"`
	StructuredData map[string]any `json:"structuredData,omitempty"`
	Usage          *resumes.Usage `json:"usage,omitempty"`
	ElapsedMs      int64          `json:"elapsedMs"`
}

func main() {
	resumePath := flag.String("resume", "", "Path to resume file (pdf, docx or txt)")
	mimeType := flag.String("mime", "", "MIME type hint (defaults to the file extension)")
	complete := flag.Bool("complete", false, "Call the configured provider for summary and extraction")
	printPrompts := flag.Bool("print-prompts", false, "Print the rendered prompts and exit")
	outPath := flag.String("out", "", "Path to write the JSON report (optional)")
	flag.Parse()

	if strings.TrimSpace(*resumePath) == "" {
		exitErr("resume path is required")
	}
	data, err := os.ReadFile(*resumePath)
	if err != nil {
		exitErr(fmt.Sprintf("read resume: %v", err))
	}

	cfg := config.Load()
	ctx := context.Background()
	start := time.Now()

	extractor := extract.New(extract.Limits{MinLength: cfg.MinTextLength, MaxLength: cfg.MaxTextLength})
	doc, err := extractor.Extract(ctx, data, *mimeType, filepath.Base(*resumePath))
	if err != nil {
		exitErr(fmt.Sprintf("extract resume text: %v", err))
	}

	if *printPrompts {
		fmt.Println(llm.BuildSummaryPrompt(doc.Text))
		fmt.Println("----")
		fmt.Println(llm.BuildExtractionPrompt(doc.Text))
		return
	}

	out := report{
		File:          filepath.Base(*resumePath),
		Document:      doc,
		URLs:          harvest.Harvest(doc.Text),
		PromptVersion: llm.PromptVersion,
	}

	if *complete {
		cfg.DatabaseURL = ""
		cfg.Env = "dev"
		cfg.AMQPURL = ""
		app, err := bootstrap.Build(cfg)
		if err != nil {
			exitErr(fmt.Sprintf("bootstrap: %v", err))
		}
		defer app.Close()
		if !app.ResumesService.Configured() {
			exitErr("no provider configured; set one of OPENROUTER_API_KEY, GROQ_API_KEY, TOGETHER_API_KEY, GEMINI_API_KEY, LLAMA_API_KEY")
		}
		out.Provider, out.Model = app.Provider, app.Model

		summary, err := app.ResumesService.LLM.Complete(ctx, llm.BuildSummaryPrompt(doc.Text), resumes.SummaryOptions)
		if err != nil {
			exitErr(fmt.Sprintf("summary: %v", err))
		}
		extraction, err := app.ResumesService.LLM.Complete(ctx, llm.BuildExtractionPrompt(doc.Text), resumes.ExtractionOptions)
		if err != nil {
			exitErr(fmt.Sprintf("extraction: %v", err))
		}
		structured, err := resumes.Reconcile(extraction.Text, out.URLs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "raw extraction output:\n%s\n", extraction.Text)
			exitErr(fmt.Sprintf("reconcile: %v", err))
		}
		out.Summary = summary.Text
		out.StructuredData = structured
		out.Usage = &resumes.Usage{
			Summary:    summary.TokensUsed,
			Extraction: extraction.TokensUsed,
			Total:      summary.TokensUsed + extraction.TokensUsed,
		}
	}
	out.ElapsedMs = time.Since(start).Milliseconds()

	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("encode report: %v", err))
	}
	if strings.TrimSpace(*outPath) != "" {
		if err := os.WriteFile(*outPath, payload, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
		return
	}
	fmt.Println(string(payload))
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

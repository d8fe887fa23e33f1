package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/poiesic/lectern"
	"github.com/poiesic/lectern/ai/assemblyai"
	"github.com/poiesic/lectern/core"
	"github.com/poiesic/lectern/server"
	"github.com/poiesic/lectern/transcript"
	"github.com/urfave/cli/v2"
)

// ErrNoTranscripts is returned when no path or pattern matched a file.
var ErrNoTranscripts = errors.New("no transcript files matched")

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to server.addr)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg := settings(c)
			if c.IsSet("addr") {
				cfg.Server.Addr = c.String("addr")
			}

			engine, err := openEngine(c)
			if err != nil {
				return err
			}
			defer engine.Close()

			srv, err := server.New(engine, cfg.Server, server.WithLogger(slog.Default()))
			if err != nil {
				return err
			}
			ctx, stop := commandContext(c, 0)
			defer stop()
			return srv.Start(ctx)
		},
	}
}

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:      "index",
		Usage:     "Replace the collection with one or more transcripts and print their chapters",
		ArgsUsage: "<transcript or glob>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Also write the chapters as a JSON array to this file",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Do not show a progress bar",
			},
		},
		Action: func(c *cli.Context) error {
			paths, err := expandPaths(c.Args().Slice())
			if err != nil {
				return err
			}
			var segments []core.TranscriptSegment
			for _, path := range paths {
				loaded, err := transcript.Load(path)
				if err != nil {
					return fmt.Errorf("failed to load %s: %w", path, err)
				}
				segments = append(segments, loaded...)
			}
			fmt.Fprintf(os.Stderr, "Loaded %d segments from %d file(s).\n", len(segments), len(paths))

			var opts []lectern.Option
			if !c.Bool("quiet") {
				opts = append(opts, lectern.WithMonitor(newProgressMonitor(os.Stderr)))
			}
			engine, err := openEngine(c, opts...)
			if err != nil {
				return err
			}
			defer engine.Close()

			ctx, stop := commandContext(c, explicitTimeout(c))
			defer stop()
			result, err := engine.Index(ctx, segments)
			if err != nil {
				return fmt.Errorf("indexing failed: %w", err)
			}
			if result.Warning != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", result.Warning)
			}

			printChapters(os.Stdout, result.Chapters)
			if out := c.String("out"); out != "" {
				return writeJSON(out, result.Chapters)
			}
			return nil
		},
	}
}

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Ask a question about the indexed transcript",
		ArgsUsage: "<question>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "Print the answer without terminal styling",
			},
			&cli.BoolFlag{
				Name:  "show-context",
				Usage: "Also print the retrieved transcript segments",
			},
		},
		Action: func(c *cli.Context) error {
			question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if question == "" {
				return errors.New("a question is required")
			}

			engine, err := openEngine(c)
			if err != nil {
				return err
			}
			defer engine.Close()

			ctx, stop := commandContext(c, settings(c).Server.RequestTimeout)
			defer stop()
			result, err := engine.Query(ctx, question)
			if err != nil {
				return err
			}

			md := result.Answer
			if c.Bool("show-context") {
				md += "\n\n---\n\n**Context**\n"
				for _, text := range result.RetrievedTexts {
					md += "\n- " + text
				}
			}
			return renderMarkdown(os.Stdout, md, c.Bool("raw"))
		},
	}
}

func flashcardsCommand() *cli.Command {
	return &cli.Command{
		Name:  "flashcards",
		Usage: "Generate one flashcard per chapter as JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "chapters",
				Usage: "JSON array of chapters (defaults to re-chaptering the indexed transcript)",
			},
		},
		Action: func(c *cli.Context) error {
			engine, err := openEngine(c)
			if err != nil {
				return err
			}
			defer engine.Close()

			ctx, stop := commandContext(c, settings(c).Server.RequestTimeout)
			defer stop()

			var chapters []string
			if path := c.String("chapters"); path != "" {
				if err := readJSON(path, &chapters); err != nil {
					return err
				}
			} else {
				chapters, err = engine.Chapters(ctx)
				if err != nil {
					return err
				}
			}

			result, err := engine.GenerateFlashcards(ctx, chapters)
			if err != nil {
				return err
			}
			if result.Skipped > 0 {
				fmt.Fprintf(os.Stderr, "Skipped %d of %d chapters.\n", result.Skipped, len(chapters))
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result.Flashcards)
		},
	}
}

func summarizeCommand() *cli.Command {
	return &cli.Command{
		Name:      "summarize",
		Usage:     "Summarize a transcript file",
		ArgsUsage: "<transcript>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "Print the summary without terminal styling",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("exactly one transcript file is required")
			}
			segments, err := transcript.Load(c.Args().First())
			if err != nil {
				return err
			}

			engine, err := openEngine(c)
			if err != nil {
				return err
			}
			defer engine.Close()

			ctx, stop := commandContext(c, settings(c).Server.RequestTimeout)
			defer stop()
			summary, err := engine.Summarize(ctx, strings.Join(transcript.Texts(segments), " "))
			if err != nil {
				return err
			}
			return renderMarkdown(os.Stdout, summary, c.Bool("raw"))
		},
	}
}

func transcribeCommand() *cli.Command {
	return &cli.Command{
		Name:      "transcribe",
		Usage:     "Transcribe audio from a URL with AssemblyAI and save the segments as JSON",
		ArgsUsage: "<audio-url>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output transcript file",
				Value:   "transcription.json",
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "AssemblyAI API key (defaults to assemblyai.api_key)",
				EnvVars: []string{"ASSEMBLYAI_API_KEY"},
			},
			&cli.StringFlag{
				Name:  "language",
				Usage: "Language code of the audio (defaults to assemblyai.language_code)",
			},
			&cli.BoolFlag{
				Name:  "index",
				Usage: "Index the transcript after saving it",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("exactly one audio URL is required")
			}
			cfg := settings(c)
			if c.IsSet("language") {
				cfg.AssemblyAI.LanguageCode = c.String("language")
			}

			var opts []lectern.Option
			if key := c.String("api-key"); key != "" {
				transcriber, err := assemblyai.NewTranscriber(key, assemblyai.WithLanguageCode(cfg.AssemblyAI.LanguageCode))
				if err != nil {
					return err
				}
				opts = append(opts, lectern.WithTranscriber(transcriber))
			}
			if c.Bool("index") {
				opts = append(opts, lectern.WithMonitor(newProgressMonitor(os.Stderr)))
			}
			engine, err := openEngine(c, opts...)
			if err != nil {
				return err
			}
			defer engine.Close()

			ctx, stop := commandContext(c, explicitTimeout(c))
			defer stop()

			start := time.Now()
			segments, err := engine.Transcribe(ctx, c.Args().First())
			if err != nil {
				return err
			}
			out := c.String("out")
			if err := transcript.Save(out, segments); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Saved %d segments to %s in %s.\n", len(segments), out, time.Since(start).Round(time.Second))

			if !c.Bool("index") {
				return nil
			}
			result, err := engine.Index(ctx, segments)
			if err != nil {
				return fmt.Errorf("indexing failed: %w", err)
			}
			printChapters(os.Stdout, result.Chapters)
			return nil
		},
	}
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write the effective configuration to the --config path",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing file",
			},
		},
		Action: func(c *cli.Context) error {
			path := c.String("config")
			if _, err := os.Stat(path); err == nil && !c.Bool("force") {
				return fmt.Errorf("%s already exists; use --force to overwrite", path)
			}
			if err := settings(c).Save(path); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
			return nil
		},
	}
}

// expandPaths resolves each argument as a doublestar glob, keeping the
// first occurrence of every file in argument order.
func expandPaths(patterns []string) ([]string, error) {
	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		slices.Sort(matches)
		for _, match := range matches {
			if info, err := os.Stat(match); err != nil || info.IsDir() {
				continue
			}
			if !slices.Contains(paths, match) {
				paths = append(paths, match)
			}
		}
	}
	if len(paths) == 0 {
		return nil, ErrNoTranscripts
	}
	return paths, nil
}

func explicitTimeout(c *cli.Context) time.Duration {
	if c.IsSet("timeout") {
		return c.Duration("timeout")
	}
	return 0
}

func printChapters(w io.Writer, chapters []string) {
	for i, chapter := range chapters {
		fmt.Fprintf(w, "Chapter %d:\n%s\n\n", i+1, chapter)
	}
}

func writeJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

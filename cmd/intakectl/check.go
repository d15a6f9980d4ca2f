package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rcm-webdev/insight-lens/internal/intake"
	"github.com/rcm-webdev/insight-lens/internal/models"
	"github.com/rcm-webdev/insight-lens/internal/upload"
	"github.com/spf13/cobra"
)

type checkResult struct {
	Path     string                  `json:"path"`
	Metadata models.FileMetadata     `json:"metadata"`
	Result   models.ValidationResult `json:"result"`
}

func newCheckCmd() *cobra.Command {
	var (
		maxSize    int64
		maxFiles   int
		types      []string
		extensions []string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "check <file>...",
		Short: "Check files against the upload policy",
		Long: `Check runs every admission rule against each file, as if the files were
added to one empty queue in order. Accepted files count toward the queue
limit; rejected ones do not.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			policy := basePolicy(cfg)

			flags := cmd.Flags()
			if flags.Changed("max-size") {
				policy.MaxFileSize = maxSize
			}
			if flags.Changed("max-files") {
				policy.MaxFiles = maxFiles
			}
			if flags.Changed("types") {
				policy.AcceptedTypes = types
			}
			if flags.Changed("extensions") {
				policy.AcceptedExtensions = extensions
			}
			policy = intake.Normalize(policy)
			if err := intake.CheckPolicy(policy); err != nil {
				return err
			}

			results, err := checkFiles(args, policy)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				printResults(out, results)
			}

			rejected := 0
			for _, r := range results {
				if !r.Result.IsValid {
					rejected++
				}
			}
			if rejected > 0 {
				return fmt.Errorf("%d of %d files rejected", rejected, len(results))
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&maxSize, "max-size", intake.DefaultMaxFileSize, "maximum file size in bytes")
	cmd.Flags().IntVar(&maxFiles, "max-files", intake.DefaultMaxFiles, "maximum files per queue")
	cmd.Flags().StringSliceVar(&types, "types", nil, "accepted MIME types")
	cmd.Flags().StringSliceVar(&extensions, "extensions", nil, "accepted file extensions")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")

	return cmd
}

func checkFiles(paths []string, policy models.UploadConfig) ([]checkResult, error) {
	results := make([]checkResult, 0, len(paths))
	queued := 0
	for _, path := range paths {
		meta, err := fileMetadata(path)
		if err != nil {
			return nil, err
		}
		result := intake.Validate(meta, queued, policy)
		if result.IsValid {
			queued++
		}
		results = append(results, checkResult{Path: path, Metadata: meta, Result: result})
	}
	return results, nil
}

func fileMetadata(path string) (models.FileMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.FileMetadata{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return models.FileMetadata{}, err
	}
	if info.IsDir() {
		return models.FileMetadata{}, fmt.Errorf("%s is a directory", path)
	}
	return upload.ExtractMetadata(filepath.Base(path), "", f, info.Size(), info.ModTime()), nil
}

func printResults(w io.Writer, results []checkResult) {
	for _, r := range results {
		dims := "-"
		if d := r.Metadata.Dimensions; d != nil {
			dims = fmt.Sprintf("%dx%d", d.Width, d.Height)
		}
		if r.Result.IsValid {
			fmt.Fprintf(w, "OK      %s (%s, %d bytes, %s)\n", r.Path, r.Metadata.Type, r.Metadata.Size, dims)
			continue
		}
		fmt.Fprintf(w, "REJECT  %s (%s, %d bytes):", r.Path, r.Metadata.Type, r.Metadata.Size)
		for _, e := range r.Result.Errors {
			fmt.Fprintf(w, " %s;", e)
		}
		fmt.Fprintln(w)
	}
}

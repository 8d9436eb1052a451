package cmd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-finder/internal/config"
	"github.com/kozaktomas/face-finder/internal/database"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the stored face embeddings",
	Long: `Read every face embedding from the configured source and verify it can be
loaded into the match index: the vector length must equal FACE_EMBEDDING_DIM,
values must be finite and face IDs must be unique.

Examples:
  # Check the default SQLite database
  face-finder check

  # JSON output for scripting
  DATABASE_URL=postgres://faces@db/faces face-finder check --json`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().Bool("json", false, "Output as JSON instead of progress bar")
}

// CheckResult represents the result of a source check
type CheckResult struct {
	Success       bool   `json:"success"`
	Source        string `json:"source"`
	SourceMissing bool   `json:"source_missing,omitempty"`
	Faces         int    `json:"faces"`
	Photos        int    `json:"photos"`
	Dim           int    `json:"dim"`
	Problem       string `json:"problem,omitempty"` // first problem found
	DurationMs    int64  `json:"duration_ms"`
}

// checkRows validates rows against dim and reports the first problem found.
// step is called once per row.
func checkRows(rows []database.FaceEmbedding, dim int, step func()) (photos int, problem string) {
	seenFaces := make(map[int64]struct{}, len(rows))
	seenPhotos := make(map[int64]struct{})

	for _, r := range rows {
		if step != nil {
			step()
		}
		seenPhotos[r.PhotoID] = struct{}{}
		if problem != "" {
			continue
		}

		if _, dup := seenFaces[r.FaceID]; dup {
			problem = fmt.Sprintf("face %d: duplicate face id", r.FaceID)
			continue
		}
		seenFaces[r.FaceID] = struct{}{}

		if len(r.Embedding) != dim {
			problem = fmt.Sprintf("face %d: embedding has %d values, expected %d", r.FaceID, len(r.Embedding), dim)
			continue
		}
		for i, v := range r.Embedding {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				problem = fmt.Sprintf("face %d: non-finite value at index %d", r.FaceID, i)
				break
			}
		}
	}
	return len(seenPhotos), problem
}

func runCheck(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	ctx := context.Background()
	cfg := config.Load()
	startTime := time.Now()

	result := CheckResult{
		Source: string(cfg.Database.Kind()),
		Dim:    cfg.Match.EmbeddingDim,
	}

	source, err := openSource(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer source.Close()

	if !jsonOutput {
		fmt.Println("Fetching face embeddings...")
	}
	rows, err := source.FetchAllEmbeddings(ctx)
	if errors.Is(err, database.ErrSourceNotFound) {
		result.Success = true
		result.SourceMissing = true
		result.DurationMs = time.Since(startTime).Milliseconds()
		if jsonOutput {
			return outputJSON(result)
		}
		fmt.Printf("Warning: embedding source %s not found, nothing to check\n", cfg.Database.URL)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to fetch embeddings: %w", err)
	}

	var bar *progressbar.ProgressBar
	if !jsonOutput {
		bar = progressbar.NewOptions(len(rows),
			progressbar.OptionSetDescription("Checking faces"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("faces"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionFullWidth(),
		)
	}

	result.Faces = len(rows)
	result.Photos, result.Problem = checkRows(rows, cfg.Match.EmbeddingDim, func() {
		if bar != nil {
			bar.Add(1)
		}
	})
	if bar != nil {
		bar.Finish()
		fmt.Println()
	}
	result.Success = result.Problem == ""
	result.DurationMs = time.Since(startTime).Milliseconds()

	if jsonOutput {
		if err := outputJSON(result); err != nil {
			return err
		}
	} else {
		fmt.Printf("Faces:  %d\n", result.Faces)
		fmt.Printf("Photos: %d\n", result.Photos)
		fmt.Printf("Dim:    %d\n", result.Dim)
		if result.Problem != "" {
			fmt.Printf("Problem: %s\n", result.Problem)
		} else {
			fmt.Println("All embeddings can be loaded")
		}
	}

	if !result.Success {
		return errors.New("embedding source check failed")
	}
	return nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-finder/internal/config"
	"github.com/kozaktomas/face-finder/internal/database"
	"github.com/kozaktomas/face-finder/internal/detector"
	"github.com/kozaktomas/face-finder/internal/facematch"
)

var matchCmd = &cobra.Command{
	Use:   "match <image>",
	Short: "Find photos containing the faces in an image",
	Long: `Detect faces in a local image file and search the stored embeddings for
photos of the same people. This runs the same pipeline as the API without
starting the server.

Examples:
  # Search with the configured defaults
  face-finder match portrait.jpg

  # Stricter matching, top 10 photos per face
  face-finder match portrait.jpg --threshold 0.65 --limit 10

  # Output as JSON
  face-finder match portrait.jpg --json`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().Float64("threshold", 0, "Minimum cosine similarity (0 = MATCH_THRESHOLD)")
	matchCmd.Flags().Int("limit", 0, "Maximum photos per face (0 = MATCH_LIMIT)")
	matchCmd.Flags().Bool("json", false, "Output as JSON")
}

// FaceMatches holds the search results for one detected face
type FaceMatches struct {
	FaceIndex int                      `json:"face_index"`
	BBox      database.BBox            `json:"bbox"`
	Score     float64                  `json:"score"`
	Matches   []facematch.SearchResult `json:"matches"`
}

func runMatch(cmd *cobra.Command, args []string) error {
	threshold := mustGetFloat64(cmd, "threshold")
	limit := mustGetInt(cmd, "limit")
	jsonOutput := mustGetBool(cmd, "json")

	ctx := context.Background()
	cfg := config.Load()
	if threshold == 0 {
		threshold = cfg.Match.Threshold
	}
	if limit <= 0 {
		limit = cfg.Match.Limit
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	width, height, err := detector.DecodeImageSize(data)
	if err != nil {
		return fmt.Errorf("failed to decode image %s: %w", args[0], err)
	}

	source, err := openSource(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer source.Close()

	logger := cfg.Log.NewLogger()
	store := facematch.NewStore(source, cfg.Match.EmbeddingDim,
		facematch.WithStoreLogger(logger),
		facematch.WithHNSW(cfg.Match.Index == config.IndexHNSW),
	)
	engine := newEngine(cfg, store, logger)
	if _, err := engine.Reload(ctx); err != nil {
		return fmt.Errorf("loading face embeddings: %w", err)
	}

	if !jsonOutput {
		fmt.Printf("Loaded %d faces, detecting faces in %s...\n", engine.Stats().TotalEmbeddings, args[0])
	}
	resp, err := detector.NewClient(cfg.Detector.URL).DetectFaces(ctx, data)
	if err != nil {
		return fmt.Errorf("face detection failed: %w", err)
	}
	if resp == nil || len(resp.Faces) == 0 {
		return errors.New("no faces detected in the image")
	}

	var results []FaceMatches
	for _, face := range resp.Faces {
		bbox, ok := facematch.ClampBBox(face.BBox, width, height)
		if !ok || facematch.IsTooSmall(bbox, cfg.Upload.MinFaceSize) {
			continue
		}
		key, err := engine.StoreTempFace(face.Embedding)
		if err != nil {
			return fmt.Errorf("face %d: %w", face.FaceIndex, err)
		}
		matches, err := engine.Search(key, threshold, limit)
		if err != nil {
			return fmt.Errorf("face %d: %w", face.FaceIndex, err)
		}
		results = append(results, FaceMatches{
			FaceIndex: face.FaceIndex,
			BBox:      bbox,
			Score:     face.DetScore,
			Matches:   matches,
		})
	}
	facematch.SortLeftToRight(results, func(f FaceMatches) database.BBox { return f.BBox })

	if jsonOutput {
		return outputJSON(results)
	}
	if len(results) == 0 {
		fmt.Println("No valid faces detected (faces too small)")
		return nil
	}

	for _, r := range results {
		fmt.Printf("\nFace %d at (%d,%d %dx%d), %d matches\n",
			r.FaceIndex, r.BBox.X, r.BBox.Y, r.BBox.W, r.BBox.H, len(r.Matches))
		if len(r.Matches) == 0 {
			continue
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PHOTO\tFILENAME\tFACE\tSIMILARITY")
		for _, m := range r.Matches {
			filename := ""
			if photo, err := source.GetPhoto(ctx, m.PhotoID); err == nil && photo != nil {
				filename = photo.Filename
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%.3f\n", m.PhotoID, filename, m.FaceID, m.Similarity)
		}
		w.Flush()
	}
	return nil
}

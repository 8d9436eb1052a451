package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-finder",
	Short: "Find photos of a person by face similarity",
	Long: `Face Finder keeps the face embeddings of an indexed photo library in memory
and answers "which photos contain this face?" for faces detected in an
uploaded image.

Embeddings are read from SQLite, PostgreSQL (pgvector) or MariaDB,
selected by the DATABASE_URL scheme.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

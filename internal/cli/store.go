package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/scalewithchintan/news-cache/pkg/news"
)

var (
	storeFile string
	storeKey  string
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Store an ingested batch as the latest news",
	Long: "Reads a provider response envelope or a JSON array of provider records from " +
		"--file (or stdin), stores it at the primary key and rebuilds the time-sorted index.",
	RunE: storeAction,
}

func init() {
	storeCmd.Flags().StringVarP(&storeFile, "file", "f", "-", "input file, - for stdin")
	storeCmd.Flags().StringVar(&storeKey, "key", "", "envelope key (default NEWS_PRIMARY_KEY)")
	rootCmd.AddCommand(storeCmd)
}

func storeAction(cmd *cobra.Command, _ []string) error {
	data, err := readInput(cmd, storeFile)
	if err != nil {
		return err
	}

	env, wrapped, err := decodeBatch(data)
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	w := a.writer()
	if wrapped {
		err = w.StoreEnvelope(cmd.Context(), env, storeKey)
	} else {
		err = w.StoreLatest(cmd.Context(), env.Results, storeKey)
	}
	if err != nil {
		return fmt.Errorf("store batch: %w", err)
	}

	key := storeKey
	if key == "" {
		key = a.cfg.Keys.Primary
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored %d articles at %s (index %s)\n", len(env.Results), key, a.cfg.Keys.SortedIndex)
	return nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// decodeBatch accepts either a provider envelope (wrapped=true) or a bare
// array of records.
func decodeBatch(data []byte) (env news.Envelope, wrapped bool, err error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return env, false, errors.New("input is empty")
	}

	switch data[0] {
	case '[':
		var batch []news.RawArticle
		if err := json.Unmarshal(data, &batch); err != nil {
			return env, false, fmt.Errorf("decode records: %w", err)
		}
		return news.NewEnvelope(batch), false, nil
	case '{':
		if err := json.Unmarshal(data, &env); err != nil {
			return env, false, fmt.Errorf("decode envelope: %w", err)
		}
		if env.Status == "" {
			env.Status = news.StatusSuccess
		}
		if env.Results == nil {
			env.Results = []news.RawArticle{}
		}
		return env, true, nil
	default:
		return env, false, errors.New("input must be a JSON object or array")
	}
}

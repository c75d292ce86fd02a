package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yunkee-lee/mcp-tmap/pkg/tmap"
)

// clientConfigKey is the entry written under mcpServers.
const clientConfigKey = "tmap"

const appKeyPlaceholder = "<your SK open API app key>"

func newGenerateConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate-config <path>",
		Short: "Generate or update a Claude Desktop Client config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mergeOnly, _ := cmd.Flags().GetBool("merge-only")
			if err := generateClientConfig(args[0], mergeOnly); err != nil {
				return fmt.Errorf("failed to generate config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s entry to %s\n", clientConfigKey, args[0])
			return nil
		},
	}
	cmd.Flags().Bool("merge-only", false, "Fail instead of replacing an existing file that is not valid JSON")
	return cmd
}

// generateClientConfig creates or updates a Claude Desktop Client config
// file, keeping every entry except mcpServers.tmap.
func generateClientConfig(outputPath string, mergeOnly bool) error {
	logger := slog.Default()

	if outputPath == "" {
		return errors.New("output path must not be empty")
	}
	if strings.Contains(outputPath, "..") {
		return errors.New("output path must not contain '..'")
	}
	if filepath.Ext(outputPath) != ".json" {
		return errors.New("output path must have a .json extension")
	}

	execPath, err := os.Executable()
	if err != nil {
		execPath = os.Args[0]
	}
	absExecPath, err := filepath.Abs(execPath)
	if err != nil {
		absExecPath = execPath
	}

	appKey := os.Getenv(tmap.AppKeyEnv)
	if appKey == "" {
		appKey = appKeyPlaceholder
	}
	entry := map[string]any{
		"command": absExecPath,
		"args":    []string{"serve"},
		"env": map[string]string{
			tmap.AppKeyEnv: appKey,
		},
	}

	config := make(map[string]any)
	// #nosec G304 -- path is validated above.
	data, err := os.ReadFile(outputPath)
	switch {
	case err == nil:
		err := json.Unmarshal(data, &config)
		if err == nil && config == nil {
			err = errors.New("not a JSON object")
		}
		if err != nil {
			if mergeOnly {
				return fmt.Errorf("existing config is not valid JSON: %w", err)
			}
			logger.Warn("existing config is not valid JSON, will create new", "error", err)
			config = make(map[string]any)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return fmt.Errorf("failed to read existing config: %w", err)
	}

	mcpServers, ok := config["mcpServers"].(map[string]any)
	if !ok {
		mcpServers = make(map[string]any)
		config["mcpServers"] = mcpServers
	}
	mcpServers[clientConfigKey] = entry

	data, err = json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(outputPath), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(outputPath, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	logger.Info("generated Claude Desktop Client config", "path", outputPath)
	return nil
}

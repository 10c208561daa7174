package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	engine_v1 "github.com/rxtech-lab/argo-bh/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-bh/internal/config"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"github.com/rxtech-lab/argo-bh/pkg/marketdata"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	botSchemaName     = "bhbot-config.json"
	botSampleName     = "bhbot.yaml"
	engineSchemaName  = "backtest-engine-v1-config.json"
	yamlServerComment = "# yaml-language-server: $schema="
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Write the JSON schemas and a sample bot configuration",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output directory",
				Value:   "config",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			written, err := writeSchemas(cmd.String("out"))
			for _, path := range written {
				fmt.Println(BuyStyle.Render("wrote " + path))
			}

			return err
		},
	}
}

// writeSchemas writes every JSON schema into dir and a sample config unless one already exists.
// It returns the paths it wrote.
func writeSchemas(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "failed to create %s", dir)
	}

	botSchema, err := config.GenerateSchemaJSON()
	if err != nil {
		return nil, err
	}

	engineConfig := engine_v1.EmptyConfig()

	engineSchema, err := engineConfig.GenerateSchemaJSON()
	if err != nil {
		return nil, err
	}

	var written []string

	files := []struct {
		name    string
		content string
	}{
		{botSchemaName, botSchema},
		{engineSchemaName, engineSchema},
	}

	for _, providerName := range marketdata.GetSupportedProviders() {
		jobSchema, err := marketdata.GetDownloadConfigSchema(providerName)
		if err != nil {
			return nil, err
		}

		files = append(files, struct {
			name    string
			content string
		}{"download-" + providerName + ".json", jobSchema})
	}

	for _, file := range files {
		path := filepath.Join(dir, file.name)
		if err := os.WriteFile(path, []byte(file.content), 0644); err != nil {
			return written, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "failed to write %s", path)
		}

		written = append(written, path)
	}

	samplePath := filepath.Join(dir, botSampleName)
	if _, err := os.Stat(samplePath); err == nil {
		return written, nil
	}

	sample, err := yaml.Marshal(config.Default())
	if err != nil {
		return written, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to marshal sample config", err)
	}

	sample = append([]byte(yamlServerComment+botSchemaName+"\n"), sample...)
	if err := os.WriteFile(samplePath, sample, 0644); err != nil {
		return written, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "failed to write %s", samplePath)
	}

	return append(written, samplePath), nil
}

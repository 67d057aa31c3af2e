// Command docgen generates framework proposal documents from a template
// and structured content.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gcloudforge/docgen/pkg/convert"
	"github.com/gcloudforge/docgen/pkg/docgen"
	"github.com/gcloudforge/docgen/pkg/logger"
	"github.com/gcloudforge/docgen/pkg/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "docgen",
		Short:         "Generate proposal documents from a corporate template",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v, cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file path")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.Bool("log-json", false, "log in JSON format")
	pf.String("backend", "local", "storage backend (local, s3, azure)")
	pf.String("local-dir", "generated_documents", "root directory for the local backend")
	pf.String("s3-bucket", "", "bucket for the s3 backend")
	pf.String("s3-region", "", "region for the s3 backend")
	pf.String("azure-connection-string", "", "connection string for the azure backend")
	pf.String("azure-container", "sharepoint", "container for the azure backend")
	pf.String("template", "", "explicit template path")
	pf.String("docs-dir", "docs", "directory searched for template documents")
	pf.String("templates-dir", "templates", "directory searched for template documents")
	pf.String("pdf-converter-url", "", "PDF converter endpoint; empty disables conversion")
	pf.String("pdf-converter-key", "", "PDF converter function key")

	root.AddCommand(newGenerateCmd(v), newPricingCmd(v))
	return root
}

func initConfig(v *viper.Viper, cmd *cobra.Command) error {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return err
	}
	v.SetEnvPrefix("DOCGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfg := v.GetString("config"); cfg != "" {
		v.SetConfigFile(cfg)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

func newGenerateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a service description document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			gen, log, err := buildGenerator(v)
			if err != nil {
				return err
			}

			var req docgen.ServiceDescriptionRequest
			if err := loadJSON(v.GetString("content"), &req); err != nil {
				return err
			}
			overlayRequestFlags(v, &req.ServiceName, &req.FrameworkVersion, &req.Lot, &req.Draft, &req.Publish)

			result, err := gen.GenerateServiceDescription(cmd.Context(), req)
			if err != nil {
				return err
			}
			log.Info("generation complete", "word", result.WordKey, "pdf", result.PDFKey)
			return printResult(cmd, result)
		},
	}
	addRequestFlags(cmd)
	cmd.Flags().String("content", "", "path to the content JSON file")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func newPricingCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pricing",
		Short: "Generate a pricing document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			gen, log, err := buildGenerator(v)
			if err != nil {
				return err
			}

			var req docgen.PricingDocumentRequest
			overlayRequestFlags(v, &req.ServiceName, &req.FrameworkVersion, &req.Lot, &req.Draft, &req.Publish)
			if req.ServiceName == "" {
				return fmt.Errorf("--service-name is required")
			}

			result, err := gen.GeneratePricingDocument(cmd.Context(), req)
			if err != nil {
				return err
			}
			log.Info("generation complete", "word", result.WordKey, "pdf", result.PDFKey)
			return printResult(cmd, result)
		},
	}
	addRequestFlags(cmd)
	return cmd
}

func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().String("service-name", "", "service name used for the artifact key")
	cmd.Flags().String("framework-version", "", "framework version (e.g. 14)")
	cmd.Flags().String("lot", "", "framework lot number")
	cmd.Flags().Bool("draft", false, "save as draft")
	cmd.Flags().Bool("publish", true, "place the artifact under the framework taxonomy")
}

func overlayRequestFlags(v *viper.Viper, name, version, lot *string, draft, publish *bool) {
	if s := v.GetString("service-name"); s != "" {
		*name = s
	}
	if s := v.GetString("framework-version"); s != "" {
		*version = s
	}
	if s := v.GetString("lot"); s != "" {
		*lot = s
	}
	*draft = v.GetBool("draft")
	*publish = v.GetBool("publish")
}

func buildGenerator(v *viper.Viper) (*docgen.Generator, logger.Logger, error) {
	log := logger.New(logger.Config{
		Level: v.GetString("log-level"),
		JSON:  v.GetBool("log-json"),
	})

	backend, err := buildBackend(v)
	if err != nil {
		return nil, nil, err
	}

	fs := afero.NewOsFs()
	loader := docgen.NewTemplateLoader(docgen.DefaultSources(
		fs,
		v.GetString("template"),
		v.GetString("docs-dir"),
		v.GetString("templates-dir"),
	)...)

	opts := []docgen.GeneratorOption{
		docgen.WithImageFetcher(docgen.NewImageFetcher(15 * time.Second)),
		docgen.WithContainers(v.GetString("azure-container"), v.GetString("azure-container")),
	}
	if url := v.GetString("pdf-converter-url"); url != "" {
		opts = append(opts, docgen.WithConverter(convert.NewHTTPConverter(
			url,
			convert.WithFunctionKey(v.GetString("pdf-converter-key")),
		)))
	}
	return docgen.NewGenerator(log, backend, loader, opts...), log, nil
}

func buildBackend(v *viper.Viper) (storage.Backend, error) {
	switch v.GetString("backend") {
	case "local":
		return storage.NewLocalBackend(v.GetString("local-dir")), nil
	case "s3":
		bucket := v.GetString("s3-bucket")
		if bucket == "" {
			return nil, fmt.Errorf("--s3-bucket is required for the s3 backend")
		}
		return storage.NewS3Backend(context.Background(), bucket, v.GetString("s3-region"))
	case "azure":
		conn := v.GetString("azure-connection-string")
		if conn == "" {
			return nil, fmt.Errorf("--azure-connection-string is required for the azure backend")
		}
		return storage.NewAzureBackend(conn, v.GetString("azure-container"))
	default:
		return nil, fmt.Errorf("unknown backend %q", v.GetString("backend"))
	}
}

func loadJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read content file: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse content file: %w", err)
	}
	return nil
}

func printResult(cmd *cobra.Command, result *docgen.GenerateResult) error {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

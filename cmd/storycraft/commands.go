package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/storycraft/backend/internal/app"
	"github.com/zhouzirui/storycraft/backend/internal/model/story"
	"github.com/zhouzirui/storycraft/backend/internal/model/user"
	"github.com/zhouzirui/storycraft/backend/internal/service/ai"
)

type builder func(ctx context.Context) (*app.App, error)

func newRootCmd(build builder) *cobra.Command {
	root := &cobra.Command{
		Use:           "storycraft",
		Short:         "AI-assisted story writing from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		loginCmd(build),
		logoutCmd(build),
		whoamiCmd(build),
		analyzeCmd(build),
		enhanceCmd(build),
		titleCmd(build),
		healthCmd(build),
	)
	return root
}

func loginCmd(build builder) *cobra.Command {
	var creds user.Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if creds.Email == "" || creds.Password == "" {
				return errors.New("--email and --password are required")
			}
			a, err := build(cmd.Context())
			if err != nil {
				return err
			}
			u, err := a.Auth.Login(cmd.Context(), creds)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", u.DisplayName, u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "account password")
	return cmd
}

func logoutCmd(build builder) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(cmd.Context())
			if err != nil {
				return err
			}
			a.Auth.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func whoamiCmd(build builder) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(cmd.Context())
			if err != nil {
				return err
			}
			s := a.Auth.Restore(cmd.Context())
			if !s.IsAuthenticated || s.User == nil {
				return errors.New("not logged in")
			}
			return printJSON(cmd.OutOrStdout(), s.User)
		},
	}
}

func analyzeCmd(build builder) *cobra.Command {
	var provider, modelName, apiKey string
	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze a story's tone, themes and readability",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(cmd, args)
			if err != nil {
				return err
			}
			a, err := build(cmd.Context())
			if err != nil {
				return err
			}

			var result *story.AnalysisResult
			if provider != "" {
				result, err = a.AI.Analyze(cmd.Context(), content, ai.ParseSettings(provider, modelName, apiKey))
			} else {
				a.Auth.Restore(cmd.Context())
				result, err = a.AI.AnalyzeStory(cmd.Context(), content)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "model provider (\"ollama\" runs locally); defaults to saved settings")
	cmd.Flags().StringVar(&modelName, "model", "", "model name")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "provider API key for hosted models")
	return cmd
}

func enhanceCmd(build builder) *cobra.Command {
	return &cobra.Command{
		Use:   "enhance [file]",
		Short: "Rewrite a story to be more vivid",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(cmd, args)
			if err != nil {
				return err
			}
			a, err := build(cmd.Context())
			if err != nil {
				return err
			}
			result, err := a.AI.Enhance(cmd.Context(), content)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.EnhancedContent)
			return nil
		},
	}
}

func titleCmd(build builder) *cobra.Command {
	return &cobra.Command{
		Use:   "title [file]",
		Short: "Suggest a title for a story",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(cmd, args)
			if err != nil {
				return err
			}
			a, err := build(cmd.Context())
			if err != nil {
				return err
			}
			title, err := a.AI.GenerateTitle(cmd.Context(), content)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), title)
			return nil
		},
	}
}

func healthCmd(build builder) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the backend and the model engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(cmd.Context())
			if err != nil {
				return err
			}
			status := a.AI.Health(cmd.Context())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "backend: %s\n", okText(status.Backend))
			fmt.Fprintf(out, "model:   %s\n", okText(status.Model))
			if !status.Healthy() {
				return errors.New("unhealthy")
			}
			return nil
		},
	}
}

// readContent reads the story from the file argument, or stdin without one.
func readContent(cmd *cobra.Command, args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 && args[0] != "-" {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return "", fmt.Errorf("read story: %w", err)
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return "", ai.ErrEmptyContent
	}
	return content, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func okText(ok bool) string {
	if ok {
		return "ok"
	}
	return "unreachable"
}

package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/liquidbooks/liquidbooks/internal/config"
)

// --- answers ---

var answersCmd = &cobra.Command{
	Use:   "answers",
	Short: "Record and inspect questionnaire answers",
}

var answersSetCmd = &cobra.Command{
	Use:   "set <instrument> [question=value ...]",
	Short: "Record Likert answers for an instrument",
	Long: `Record Likert answers (1-7) for a questionnaire instrument.

Examples:
  liquidbooks answers set big_five ocean_1=6 ocean_2=5
  liquidbooks answers set disc_profile --file ./disc-answers.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		instrument := args[0]
		file, _ := cmd.Flags().GetString("file")

		answers := map[string]int{}
		if file != "" {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}
			if err := json.Unmarshal(data, &answers); err != nil {
				return fmt.Errorf("parsing %s: %w", file, err)
			}
		}
		for _, pair := range args[1:] {
			key, val, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("invalid answer %q, expected question=value", pair)
			}
			n, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid value in %q: %w", pair, err)
			}
			answers[key] = n
		}
		if len(answers) == 0 {
			return fmt.Errorf("no answers given: pass question=value pairs or --file")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.patch(cmd.Context(), "/answers/"+instrument, answers)
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Recorded %d answers for %s", len(answers), instrument)
		return nil
	},
}

var answersShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show all recorded answers as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/answers")
		if err != nil {
			return err
		}

		var answers any
		if err := decodeJSON(resp, &answers); err != nil {
			return err
		}

		out, _ := json.MarshalIndent(answers, "", "  ")
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	answersSetCmd.Flags().String("file", "", "JSON file with question=value answers")
	answersCmd.AddCommand(answersSetCmd)
	answersCmd.AddCommand(answersShowCmd)
}

// --- twin ---

var twinCmd = &cobra.Command{
	Use:   "twin",
	Short: "Build and inspect the digital writing twin",
}

var twinRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the twin from the current answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/twin/rebuild", map[string]string{"name": name})
		if err != nil {
			return err
		}

		var twin struct {
			ID         string `json:"id"`
			Completion int    `json:"completionPercentage"`
		}
		if err := decodeJSON(resp, &twin); err != nil {
			return err
		}

		printSuccess("Twin rebuilt (%d%% questionnaire completion)", twin.Completion)
		return nil
	},
}

var twinShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the latest twin as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/twin")
		if err != nil {
			return err
		}

		var twin any
		if err := decodeJSON(resp, &twin); err != nil {
			return err
		}

		out, _ := json.MarshalIndent(twin, "", "  ")
		fmt.Println(string(out))
		return nil
	},
}

var voicePromptCmd = &cobra.Command{
	Use:   "voice-prompt",
	Short: "Print the compiled writing-voice system prompt",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/voice-prompt")
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Println(result["prompt"])
		return nil
	},
}

func init() {
	twinRebuildCmd.Flags().String("name", "", "display name for the twin")
	twinCmd.AddCommand(twinRebuildCmd)
	twinCmd.AddCommand(twinShowCmd)
}

// --- styles ---

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "Browse the author style catalog",
}

var stylesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all catalog styles",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/styles")
		if err != nil {
			return err
		}

		var authors []struct {
			ID     string   `json:"id"`
			Name   string   `json:"name"`
			Genres []string `json:"genres"`
		}
		if err := decodeJSON(resp, &authors); err != nil {
			return err
		}

		for _, a := range authors {
			fmt.Printf("  %s  %s (%s)\n", colorize(colorBold, a.ID), a.Name, strings.Join(a.Genres, ", "))
		}
		return nil
	},
}

var stylesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one style as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/styles/"+args[0])
		if err != nil {
			return err
		}

		var author any
		if err := decodeJSON(resp, &author); err != nil {
			return err
		}

		out, _ := json.MarshalIndent(author, "", "  ")
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	stylesCmd.AddCommand(stylesListCmd)
	stylesCmd.AddCommand(stylesShowCmd)
}

// --- samples ---

var samplesCmd = &cobra.Command{
	Use:   "samples",
	Short: "Manage writing samples",
}

var samplesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a writing sample",
	Long: `Add a writing sample to ground the twin's voice.

Examples:
  liquidbooks samples add --text "A paragraph I wrote myself."
  liquidbooks samples add --file ./essay.pdf --title "College essay"
  liquidbooks samples add --url https://example.com/my-post`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, _ := cmd.Flags().GetString("text")
		file, _ := cmd.Flags().GetString("file")
		rawURL, _ := cmd.Flags().GetString("url")
		title, _ := cmd.Flags().GetString("title")

		if text == "" && file == "" && rawURL == "" {
			return fmt.Errorf("one of --text, --file, or --url is required")
		}

		req := map[string]any{}
		if title != "" {
			req["title"] = title
		}

		switch {
		case text != "":
			req["content"] = text
		case rawURL != "":
			req["url"] = rawURL
		case file != "":
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}
			req["content"] = base64.StdEncoding.EncodeToString(data)
			req["encoding"] = "base64"
			req["filename"] = filepath.Base(file)
			if title == "" {
				req["title"] = filepath.Base(file)
			}
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/samples", req)
		if err != nil {
			return err
		}

		var sample struct {
			ID     string `json:"id"`
			Source string `json:"source"`
		}
		if err := decodeJSON(resp, &sample); err != nil {
			return err
		}

		printSuccess("Added %s sample %s", sample.Source, sample.ID)
		return nil
	},
}

var samplesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List writing samples",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/samples?limit=100")
		if err != nil {
			return err
		}

		var samples []struct {
			ID      string `json:"id"`
			Title   string `json:"title"`
			Source  string `json:"source"`
			Content string `json:"content"`
		}
		if err := decodeJSON(resp, &samples); err != nil {
			return err
		}

		for _, s := range samples {
			title := s.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Printf("  %s  %s [%s] %d chars\n", colorize(colorBold, s.ID), title, s.Source, len(s.Content))
		}
		return nil
	},
}

func init() {
	samplesAddCmd.Flags().String("text", "", "sample text")
	samplesAddCmd.Flags().String("file", "", "sample file (.txt, .md, .html, .pdf)")
	samplesAddCmd.Flags().String("url", "", "URL to fetch as a sample")
	samplesAddCmd.Flags().String("title", "", "title for the sample")
	samplesCmd.AddCommand(samplesAddCmd)
	samplesCmd.AddCommand(samplesListCmd)
}

// --- books ---

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "Create, draft, and publish books",
}

var booksCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a book with a chapter outline",
	Long: `Create a book. Each --chapter takes "Title" or "Title: summary".

Example:
  liquidbooks books create --title "Tide Lines" --genre "literary fiction" \
    --chapter "Low Water: the harbor empties" \
    --chapter "Spring Tide: everything returns at once"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		description, _ := cmd.Flags().GetString("description")
		genre, _ := cmd.Flags().GetString("genre")
		styleID, _ := cmd.Flags().GetString("style")
		chapterSpecs, _ := cmd.Flags().GetStringArray("chapter")

		if title == "" {
			return fmt.Errorf("--title is required")
		}
		if len(chapterSpecs) == 0 {
			return fmt.Errorf("at least one --chapter is required")
		}

		chapters := make([]map[string]string, 0, len(chapterSpecs))
		for _, spec := range chapterSpecs {
			chTitle, summary, _ := strings.Cut(spec, ":")
			chapters = append(chapters, map[string]string{
				"title":   strings.TrimSpace(chTitle),
				"summary": strings.TrimSpace(summary),
			})
		}

		req := map[string]any{
			"title":       title,
			"description": description,
			"genre":       genre,
			"styleId":     styleID,
			"chapters":    chapters,
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/books", req)
		if err != nil {
			return err
		}

		var book struct {
			ID string `json:"id"`
		}
		if err := decodeJSON(resp, &book); err != nil {
			return err
		}

		printSuccess("Created book %s with %d chapters", book.ID, len(chapters))
		return nil
	},
}

var booksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List books",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/books?limit=100")
		if err != nil {
			return err
		}

		var books []struct {
			ID      string `json:"id"`
			Title   string `json:"title"`
			Status  string `json:"status"`
			SiteURL string `json:"site_url"`
		}
		if err := decodeJSON(resp, &books); err != nil {
			return err
		}

		for _, b := range books {
			line := fmt.Sprintf("  %s  %s [%s]", colorize(colorBold, b.ID), b.Title, b.Status)
			if b.SiteURL != "" {
				line += "  " + b.SiteURL
			}
			fmt.Println(line)
		}
		return nil
	},
}

var booksShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a book and its chapters as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/books/"+args[0])
		if err != nil {
			return err
		}

		var book any
		if err := decodeJSON(resp, &book); err != nil {
			return err
		}

		out, _ := json.MarshalIndent(book, "", "  ")
		fmt.Println(string(out))
		return nil
	},
}

var booksDraftCmd = &cobra.Command{
	Use:   "draft <id>",
	Short: "Queue chapter drafting for a book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/books/"+args[0]+"/draft", map[string]any{})
		if err != nil {
			return err
		}

		var result struct {
			Status         string `json:"status"`
			ChaptersQueued int    `json:"chaptersQueued"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printStep("Queued %d chapters for drafting", result.ChaptersQueued)
		return nil
	},
}

var booksPublishCmd = &cobra.Command{
	Use:   "publish <id>",
	Short: "Queue publishing of a drafted book to GitHub Pages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/books/"+args[0]+"/publish", map[string]any{})
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printStep("Publishing queued, run 'liquidbooks books show %s' to get the site URL", args[0])
		return nil
	},
}

func init() {
	booksCreateCmd.Flags().String("title", "", "book title")
	booksCreateCmd.Flags().String("description", "", "book description")
	booksCreateCmd.Flags().String("genre", "", "book genre")
	booksCreateCmd.Flags().String("style", "", "author style id from the catalog")
	booksCreateCmd.Flags().StringArray("chapter", nil, `chapter outline entry, "Title" or "Title: summary"`)
	booksCmd.AddCommand(booksCreateCmd)
	booksCmd.AddCommand(booksListCmd)
	booksCmd.AddCommand(booksShowCmd)
	booksCmd.AddCommand(booksDraftCmd)
	booksCmd.AddCommand(booksPublishCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration (secrets hidden)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configSetSecretCmd = &cobra.Command{
	Use:   "set-secret <account> <value>",
	Short: "Store a secret in the platform keychain",
	Long: `Store a secret in the platform keychain.

Accounts: openrouter_api_key, github_token, api_token`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		account, value := args[0], args[1]

		if err := config.SetSecret(account, value); err != nil {
			return err
		}

		printSuccess("Stored secret %s", account)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetSecretCmd)
}

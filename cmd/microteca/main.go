package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"microteca/internal/auth"
	"microteca/internal/csvcodec"
	"microteca/pkg/models"
	"microteca/pkg/utils"
)

const defaultBaseURL = "http://localhost:8080"

var (
	baseURL     string
	sessionPath string
	verbose     bool

	logger  *zap.Logger
	client  *apiClient
	session *auth.Session
)

type listResponse struct {
	Total int                    `json:"total"`
	Items []models.Microorganism `json:"items"`
}

var rootCmd = &cobra.Command{
	Use:           "microteca",
	Short:         "Browse and administer the MICROTECA microorganism catalog",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		var err error
		logger, err = utils.NewLogger(level)
		if err != nil {
			return err
		}

		client = newAPIClient(strings.TrimRight(baseURL, "/"))
		session = auth.NewSession(client, auth.NewFileKeyStore(sessionPath), logger)
		if err := session.Init(); err != nil {
			return fmt.Errorf("restore session: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in as the catalog administrator",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		res := session.Login(cmd.Context(), email, password)
		if !res.Success {
			return errors.New(res.Error)
		}
		fmt.Println("✅ logged in")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if token := session.Token(); token != "" {
			// best effort: the server revokes outstanding tokens
			if err := client.doJSON(cmd.Context(), http.MethodPost, "/auth/logout", token, nil, nil); err != nil {
				logger.Debug("server logout failed", zap.Error(err))
			}
		}
		if err := session.Logout(); err != nil {
			return fmt.Errorf("logout failed: %w", err)
		}
		fmt.Println("✅ logged out")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printJSON(session.Status())
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Request password reset instructions",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		res := session.ResetPassword(cmd.Context(), email)
		if !res.Success {
			return errors.New(res.Error)
		}
		fmt.Println(res.Message)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the catalog",
	Long: `Searches full name, genus, species and internal code, plus the
isolation source (public) or host (--admin).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		admin, _ := cmd.Flags().GetBool("admin")
		path := "/microorganisms"
		token := ""
		if admin {
			var err error
			if token, err = requireToken(); err != nil {
				return err
			}
			path = "/admin/microorganisms"
		}

		var resp listResponse
		if err := client.doJSON(cmd.Context(), http.MethodGet, withQuery(path, filterParams(cmd)), token, nil, &resp); err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		return printJSON(resp)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("id must be an integer: %w", err)
		}
		var rec models.Microorganism
		if err := client.doJSON(cmd.Context(), http.MethodGet, fmt.Sprintf("/microorganisms/%d", id), "", nil, &rec); err != nil {
			return fmt.Errorf("show failed: %w", err)
		}
		return printJSON(rec)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := requireToken()
		if err != nil {
			return err
		}
		var st map[string]int
		if err := client.doJSON(cmd.Context(), http.MethodGet, "/admin/stats", token, nil, &st); err != nil {
			return fmt.Errorf("stats failed: %w", err)
		}
		return printJSON(st)
	},
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a record from a JSON file (- for stdin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := requireToken()
		if err != nil {
			return err
		}
		f, err := readFields(cmd)
		if err != nil {
			return err
		}
		var rec models.Microorganism
		if err := client.doJSON(cmd.Context(), http.MethodPost, "/admin/microorganisms", token, f, &rec); err != nil {
			return fmt.Errorf("create failed: %w", err)
		}
		return printJSON(rec)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Replace every field of a record from a JSON file (- for stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := requireToken()
		if err != nil {
			return err
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("id must be an integer: %w", err)
		}
		f, err := readFields(cmd)
		if err != nil {
			return err
		}
		var out map[string]any
		if err := client.doJSON(cmd.Context(), http.MethodPut, fmt.Sprintf("/admin/microorganisms/%d", id), token, f, &out); err != nil {
			return fmt.Errorf("update failed: %w", err)
		}
		return printJSON(out)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := requireToken()
		if err != nil {
			return err
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("id must be an integer: %w", err)
		}
		if err := client.doJSON(cmd.Context(), http.MethodDelete, fmt.Sprintf("/admin/microorganisms/%d", id), token, nil, nil); err != nil {
			return fmt.Errorf("delete failed: %w", err)
		}
		fmt.Println("✅ deleted")
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download the (filtered) admin view as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := requireToken()
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("out")
		params := filterParams(cmd)
		params["format"], _ = cmd.Flags().GetString("format")

		var body []byte
		err = client.doRaw(cmd.Context(), http.MethodGet, withQuery("/admin/export", params), token, "", nil,
			func(r io.Reader, _ http.Header) error {
				var rerr error
				body, rerr = io.ReadAll(r)
				return rerr
			})
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		if out == "" {
			out = csvcodec.ExportFilename(time.Now())
		}
		if out == "-" {
			_, err = os.Stdout.Write(body)
			return err
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(out, body, 0o644); err != nil {
			return err
		}
		fmt.Printf("✅ exported to %s\n", out)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Append the rows of a CSV export to the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := requireToken()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")

		var resp struct {
			Imported int `json:"imported"`
		}
		err = client.doRaw(cmd.Context(), http.MethodPost, withQuery("/admin/import", map[string]string{"format": format}),
			token, "text/csv", bytes.NewReader(data),
			func(r io.Reader, _ http.Header) error { return json.NewDecoder(r).Decode(&resp) })
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		fmt.Printf("✅ imported %d records\n", resp.Imported)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print catalog change events as they happen",
	RunE: func(cmd *cobra.Command, args []string) error {
		wsURL, err := websocketURL(client.BaseURL, "/ws")
		if err != nil {
			return err
		}
		return runWebSocket(cmd.Context(), wsURL)
	},
}

func runWebSocket(ctx context.Context, wsURL string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	logger.Debug("watching catalog events", zap.String("url", wsURL))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var obj map[string]any
		if err := json.Unmarshal(msg, &obj); err != nil {
			// not JSON? print raw
			fmt.Println(string(msg))
			continue
		}
		_ = printJSON(obj)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "api", defaultBaseURL, "API base URL")
	rootCmd.PersistentFlags().StringVar(&sessionPath, "session", defaultSessionPath(), "session file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	loginCmd.Flags().String("email", "", "email address")
	loginCmd.Flags().String("password", "", "password")
	resetCmd.Flags().String("email", "", "email address")

	for _, c := range []*cobra.Command{searchCmd, exportCmd} {
		c.Flags().String("q", "", "search text")
		c.Flags().String("category", "", "taxonomic category (Bacteria, Fungus)")
		c.Flags().String("availability", "", "availability (matches as a substring)")
	}
	searchCmd.Flags().Bool("admin", false, "use the admin view (searches host instead of isolation source)")

	exportCmd.Flags().String("out", "", "output path (- for stdout; default microteca_export_<date>.csv)")
	exportCmd.Flags().String("format", "", "csv format: naive or quoted")
	importCmd.Flags().String("format", "", "csv format: naive or quoted")

	createCmd.Flags().String("file", "-", "JSON record file")
	updateCmd.Flags().String("file", "-", "JSON record file")

	rootCmd.AddCommand(loginCmd, logoutCmd, statusCmd, resetCmd,
		searchCmd, showCmd, statsCmd, createCmd, updateCmd, deleteCmd,
		exportCmd, importCmd, watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func requireToken() (string, error) {
	if !session.Status().IsAuthenticated {
		return "", errors.New("not logged in, run: microteca login")
	}
	return session.Token(), nil
}

func filterParams(cmd *cobra.Command) map[string]string {
	q, _ := cmd.Flags().GetString("q")
	category, _ := cmd.Flags().GetString("category")
	availability, _ := cmd.Flags().GetString("availability")
	return map[string]string{"q": q, "category": category, "availability": availability}
}

func readFields(cmd *cobra.Command) (models.Fields, error) {
	path, _ := cmd.Flags().GetString("file")
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return models.Fields{}, err
	}
	var f models.Fields
	if err := json.Unmarshal(data, &f); err != nil {
		return models.Fields{}, fmt.Errorf("decode record: %w", err)
	}
	return f, nil
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "./.microteca-session.json"
	}
	return filepath.Join(home, ".microteca", "session.json")
}

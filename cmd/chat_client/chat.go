package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"course_chat_service/internal/chat/domain"
	"course_chat_service/internal/client/api"
	"course_chat_service/internal/client/app"
	"course_chat_service/internal/client/terminal"
	memberdomain "course_chat_service/internal/member/domain"
	errprocess "course_chat_service/pkg/err"
	"course_chat_service/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("login", "l", "", "log in as this user before opening the chat")
	chatCmd.Flags().String("course", "", "open this course instead of the saved preference")
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the course chat",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stdin := bufio.NewReader(os.Stdin)
	userID := cfg.UserID
	if username, _ := cmd.Flags().GetString("login"); username != "" {
		profile, err := login(ctx, client, stdin, username)
		if err != nil {
			return err
		}
		userID = profile.ID
		defer func() {
			if err := client.Logout(context.Background()); err != nil {
				logger.Log.Warn("logout", zap.Error(err))
			}
		}()
		fmt.Printf("logged in as %s\n", profile.DisplayName)
	} else if userID == "" {
		userID = currentUser(ctx, client)
	}

	out := os.Stdout
	ansi := term.IsTerminal(int(out.Fd()))
	viewport := cfg.ViewportLines
	if ansi {
		if _, rows, err := term.GetSize(int(out.Fd())); err == nil && rows > 6 && rows-4 < viewport {
			viewport = rows - 4
		}
	}
	tui := terminal.New(stdin, out, viewport, terminal.WithANSI(ansi))

	view := app.NewCourseView(client, tui, app.Options{
		UserID:          userID,
		Period:          cfg.RefreshInterval,
		BottomThreshold: cfg.BottomThreshold,
		ReloadAfterEdit: cfg.ReloadAfterEdit,
	})
	defer view.Close()

	if err := view.Open(ctx); err != nil {
		logger.Log.Warn("open course", zap.Error(err))
	}
	if course, _ := cmd.Flags().GetString("course"); course != "" {
		if err := view.SwitchCourse(ctx, course); err != nil {
			logger.Log.Warn("switch course", zap.String("course", course), zap.Error(err))
		}
	}

	return terminal.NewREPL(view, tui, client).Run(ctx)
}

func login(ctx context.Context, client *api.Client, stdin *bufio.Reader, username string) (memberdomain.Profile, error) {
	fmt.Printf("Password for %s: ", username)
	password, err := readPassword(stdin)
	fmt.Println()
	if err != nil {
		return memberdomain.Profile{}, fmt.Errorf("read password: %w", err)
	}

	profile, err := client.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, errprocess.ErrUnauthorized) {
			return memberdomain.Profile{}, errors.New("invalid username or password")
		}
		return memberdomain.Profile{}, fmt.Errorf("login: %w", err)
	}
	return profile, nil
}

// readPassword masked when stdin is a terminal
func readPassword(stdin *bufio.Reader) (string, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(b), nil
		}
	}
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// currentUser id of an existing session, anonymous otherwise
func currentUser(ctx context.Context, client *api.Client) string {
	profile, err := client.CurrentUser(ctx)
	if err != nil {
		logger.Log.Debug("no session, continuing anonymously", zap.Error(err))
		return domain.AnonymousID
	}
	return profile.ID
}

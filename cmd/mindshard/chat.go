package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mindshard/workspace/pkg/conversation"
	"github.com/mindshard/workspace/pkg/transcript"
	"github.com/mindshard/workspace/pkg/wire"
	"github.com/mindshard/workspace/pkg/workspace"
)

var chatSessionID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive prompt loop against the orchestrator",
	Long: `Starts a prompt loop. Plain input is submitted to the reasoning
backend; lines starting with '/' operate on the editing session:

  /open <path>        open a project file
  /new                open an untitled document
  /edit <path> <text> replace a document's content
  /save <path> [dest] save a document (dest required for new documents)
  /saveall            save every dirty document
  /close <path>       close a document
  /tabs               list open documents
  /diff <path>        show unsaved changes
  /quit               exit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session", "default", "Session ID for transcript history")
	rootCmd.AddCommand(chatCmd)
}

// stdioConfirmer asks on the terminal before discarding unsaved changes.
type stdioConfirmer struct {
	in *bufio.Scanner
}

func (c *stdioConfirmer) ConfirmSave(path string) bool {
	fmt.Printf("%s has unsaved changes. Save before closing? [y/N] ", path)
	if !c.in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(c.in.Text()))
	return answer == "y" || answer == "yes"
}

func (c *stdioConfirmer) PickDestination(suggested string) string {
	fmt.Printf("Save as [%s]: ", suggested)
	if !c.in.Scan() {
		return ""
	}
	return strings.TrimSpace(c.in.Text())
}

func runChat(ctx context.Context) error {
	input := bufio.NewScanner(os.Stdin)
	rt, err := newRuntime(chatSessionID, &stdioConfirmer{in: input})
	if err != nil {
		return err
	}
	defer rt.close()

	for _, entry := range rt.session.Entries() {
		printEntry(entry)
	}

	for {
		fmt.Print("> ")
		if !input.Scan() {
			return input.Err()
		}
		line := strings.TrimSpace(input.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}
		if strings.HasPrefix(line, "/") {
			if err := runWorkspaceCommand(ctx, rt.workspace, line); err != nil {
				fmt.Println("error:", err)
			}
			continue
		}

		seen := len(rt.session.Entries())
		sel := wire.ContextSelection{
			UseConversationalHistory: true,
			UseOpenFiles:             len(rt.workspace.OpenPaths()) > 0,
		}
		if err := rt.session.Submit(ctx, line, nil, sel); err != nil {
			if errors.Is(err, conversation.ErrBusy) {
				fmt.Println("still working on the previous prompt")
				continue
			}
			return err
		}
		rt.session.Wait()
		for _, entry := range rt.session.Entries()[seen:] {
			printEntry(entry)
		}
	}
}

func runWorkspaceCommand(ctx context.Context, ws *workspace.Session, line string) error {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/open":
		if len(args) < 1 {
			return fmt.Errorf("usage: /open <path>")
		}
		doc, err := ws.Open(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("opened %s (%s)\n", doc.Path, doc.ViewMode)
	case "/new":
		doc := ws.NewDocument()
		fmt.Printf("opened %s\n", doc.Path)
	case "/edit":
		if len(args) < 2 {
			return fmt.Errorf("usage: /edit <path> <text>")
		}
		return ws.Edit(args[0], strings.Join(args[1:], " "))
	case "/save":
		if len(args) < 1 {
			return fmt.Errorf("usage: /save <path> [dest]")
		}
		if len(args) >= 2 {
			return ws.SaveAs(ctx, args[0], args[1])
		}
		return ws.Save(ctx, args[0])
	case "/saveall":
		return ws.SaveAll(ctx)
	case "/close":
		if len(args) < 1 {
			return fmt.Errorf("usage: /close <path>")
		}
		return ws.Close(ctx, args[0])
	case "/tabs":
		for _, doc := range ws.Documents() {
			marker := " "
			if doc.Path == ws.ActivePath() {
				marker = "*"
			}
			flags := ""
			if doc.Dirty {
				flags += " [dirty]"
			}
			if doc.New {
				flags += " [new]"
			}
			fmt.Printf("%s %s%s\n", marker, doc.Path, flags)
		}
	case "/diff":
		if len(args) < 1 {
			return fmt.Errorf("usage: /diff <path>")
		}
		lines, err := ws.Diff(args[0])
		if err != nil {
			return err
		}
		for _, l := range lines {
			switch l.Type {
			case workspace.LineAdded:
				fmt.Println("+", l.Text)
			case workspace.LineRemoved:
				fmt.Println("-", l.Text)
			default:
				fmt.Println(" ", l.Text)
			}
		}
	default:
		return fmt.Errorf("unknown command %s", cmd)
	}
	return nil
}

func printEntry(entry transcript.Entry) {
	switch entry.Type {
	case transcript.EntryUser:
		fmt.Printf("you: %s\n", entry.Text)
	case transcript.EntryThought:
		fmt.Printf("  thinking: %s\n", entry.Text)
	case transcript.EntryToolCall:
		fmt.Printf("  tool: %s %v\n", entry.ToolName, entry.ToolArgs)
	case transcript.EntryFinalAnswer:
		fmt.Printf("assistant: %s\n", entry.Text)
	case transcript.EntryError:
		fmt.Printf("error: %s\n", entry.Text)
	}
}

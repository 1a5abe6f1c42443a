package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mindshard/workspace/pkg/transcript"
	"github.com/mindshard/workspace/pkg/wire"
)

var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "Submit one prompt and print the final answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// A throwaway session ID: one-shot asks should not replay or
		// pollute persisted chat history.
		rt, err := newRuntime("oneshot-"+uuid.NewString(), nil)
		if err != nil {
			return err
		}
		defer rt.close()

		prompt := strings.Join(args, " ")
		if err := rt.session.Submit(cmd.Context(), prompt, nil, wire.ContextSelection{}); err != nil {
			return err
		}
		rt.session.Wait()

		for _, entry := range rt.session.Filter(transcript.EntryFinalAnswer, transcript.EntryError) {
			fmt.Println(entry.Text)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}

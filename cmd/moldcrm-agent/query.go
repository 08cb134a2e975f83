package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/moldcrm/agent/pkg/agent/conversation"
	"github.com/moldcrm/agent/pkg/agent/events"
	"github.com/moldcrm/agent/pkg/history"
)

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [text...]",
		Short: "Ask the agent a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, strings.Join(args, " "))
		},
	}
	cmd.Flags().String("conversation", "", "conversation ID to continue, empty starts a new one")
	cmd.Flags().Bool("json", false, "print the full response as JSON")
	cmd.Flags().Bool("trace", false, "print orchestration events to stderr")
	_ = viper.BindPFlag("conversation", cmd.Flags().Lookup("conversation"))
	_ = viper.BindPFlag("json", cmd.Flags().Lookup("json"))
	_ = viper.BindPFlag("trace", cmd.Flags().Lookup("trace"))
	return cmd
}

func runQuery(cmd *cobra.Command, query string) error {
	ctx := cmd.Context()

	catalog, err := buildCatalog()
	if err != nil {
		return err
	}
	orch, err := buildOrchestrator(catalog)
	if err != nil {
		return err
	}
	store := buildHistoryStore()

	conversationID := viper.GetString("conversation")
	state := conversation.State{}
	if conversationID != "" {
		state, err = store.Load(ctx, conversationID)
		if err != nil && !errors.Is(err, history.ErrConversationNotFound) {
			return err
		}
	}

	if viper.GetBool("trace") {
		ctx = events.WithSinks(ctx, events.SinkFunc(func(e events.Event) error {
			fmt.Fprintf(os.Stderr, "[%s] round=%d\n", e.Type(), e.Meta().Round)
			return nil
		}))
	}

	resp, err := orch.Query(ctx, query, state, scopeFromFlags())
	if err != nil {
		log.Warn().Err(err).Msg("cli: query did not complete cleanly")
	}

	if conversationID != "" && resp != nil {
		if saveErr := store.Save(ctx, conversationID, resp.ConversationHistory); saveErr != nil {
			log.Warn().Err(saveErr).Msg("cli: could not persist conversation")
		}
	}

	if resp == nil {
		return err
	}

	if viper.GetBool("json") {
		out, marshalErr := json.MarshalIndent(resp, "", "  ")
		if marshalErr != nil {
			return marshalErr
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Println(resp.Response)
	for _, call := range resp.FunctionCalls {
		status := "ok"
		if !call.Result.Success {
			status = call.Result.Kind
		}
		fmt.Fprintf(os.Stderr, "  %s (%s, %s)\n", call.Function, status, call.Result.Duration)
	}
	if !resp.Success && resp.Error != "" {
		return errors.New(resp.Error)
	}
	return nil
}

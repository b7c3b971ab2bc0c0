package main

import (
	"context"
	"fmt"
	"io"

	"github.com/capitalize-ai/finwise-assistant/internal/app"
	"github.com/capitalize-ai/finwise-assistant/internal/model"
	"github.com/capitalize-ai/finwise-assistant/internal/service"
)

const cliTenant = "local"

// runtime is an in-memory conversation backed by the configured model and graph.
type runtime struct {
	components    *app.Components
	conversations *service.ConversationService
	messages      *service.MessageService
}

func (o *rootOptions) openRuntime() (*runtime, error) {
	cfg, log, err := o.setup()
	if err != nil {
		return nil, err
	}

	components, err := app.Build(cfg, log)
	if err != nil {
		return nil, err
	}

	conversations := service.NewConversationService(service.NewMemoryStore(), cfg.HistorySize, log)
	return &runtime{
		components:    components,
		conversations: conversations,
		messages:      service.NewMessageService(conversations, components.Pipeline, nil, log),
	}, nil
}

func (r *runtime) Close() {
	_ = r.components.Close(context.Background())
}

func (r *runtime) newConversation(ctx context.Context) (*model.Conversation, error) {
	return r.conversations.Create(ctx, cliTenant, "", &model.CreateConversationRequest{})
}

// ask runs one turn and prints the answer, followed by the turn diagnostics
// when requested.
func (r *runtime) ask(ctx context.Context, w io.Writer, conversationID, question string, diagnostics bool) error {
	resp, err := r.messages.Send(ctx, cliTenant, conversationID, &model.SendMessageRequest{Content: question})
	if err != nil {
		return err
	}

	fmt.Fprintln(w, resp.AssistantMessage.Content)
	if diagnostics {
		fmt.Fprintln(w)
		return printJSON(w, resp.Diagnostics)
	}
	return nil
}

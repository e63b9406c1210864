package model

import (
	"context"
	"sync"
)

// MockChatModel is a scripted ChatModel for tests.
//
// Each call returns the next entry of Responses; once they are used up the
// last one repeats. Err, when set, is returned instead. Every call is
// recorded in Calls.
//
// Example:
//
//	mock := &model.MockChatModel{
//	    Responses: []model.ChatOut{
//	        {Text: `{"contentQuality": {}}`},
//	        {Text: "I cannot help with that."},
//	    },
//	}
type MockChatModel struct {
	Responses []ChatOut
	Err       error
	Calls     []MockChatCall

	mu        sync.Mutex
	callIndex int
}

// MockChatCall records a single invocation of Chat.
type MockChatCall struct {
	Messages []Message
	Params   Params
}

// Chat implements ChatModel.
func (m *MockChatModel) Chat(ctx context.Context, messages []Message, params Params) (ChatOut, error) {
	if ctx.Err() != nil {
		return ChatOut{}, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockChatCall{Messages: messages, Params: params})

	if m.Err != nil {
		return ChatOut{}, m.Err
	}
	if len(m.Responses) == 0 {
		return ChatOut{}, nil
	}

	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.callIndex++
	}
	return m.Responses[idx], nil
}

// Reset clears the call history and rewinds the responses.
func (m *MockChatModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = nil
	m.callIndex = 0
}

// CallCount returns the number of Chat calls so far.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.Calls)
}

// LastPrompt returns the content of the last message of the most recent
// call, or "" when Chat has not been called.
func (m *MockChatModel) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Calls) == 0 || len(m.Calls[len(m.Calls)-1].Messages) == 0 {
		return ""
	}
	msgs := m.Calls[len(m.Calls)-1].Messages
	return msgs[len(msgs)-1].Content
}

package agent

import "context"

// Conversation binds an agent to one user.
type Conversation struct {
	agent  *Agent
	userID string
}

func (a *Agent) Conversation(userID string) *Conversation {
	return &Conversation{agent: a, userID: userID}
}

func (c *Conversation) UserID() string {
	return c.userID
}

func (c *Conversation) Query(ctx context.Context, text string) ([]string, error) {
	return c.agent.ProcessTurn(ctx, c.userID, text)
}

func (c *Conversation) Action(ctx context.Context, text string) ([]string, error) {
	return c.agent.ProcessAction(ctx, c.userID, text)
}

package main

import (
	"fmt"

	"github.com/fwojciec/mtgrules"
	"github.com/fwojciec/mtgrules/chat"
)

// Run executes the chat command.
func (c *ChatCmd) Run(deps *Dependencies) error {
	reply, err := chat.NewSession(deps.Asker).Send(deps.Ctx, c.Message)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", mtgrules.ErrorMessage(err))
		return err
	}

	fmt.Fprintln(deps.Stdout, reply.Text)
	return nil
}

package main

import "fmt"

type chatCmd struct {
	Args struct {
		ReplayFile string `positional-arg-name:"replay" description:"path to the replay file"`
	} `positional-args:"yes" required:"yes"`
}

func (c *chatCmd) Execute(_ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	result, err := runPipeline(cfg, c.Args.ReplayFile)
	if err != nil {
		return err
	}

	for _, msg := range result.Report.Chat {
		audience := "unknown"
		if msg.Audience != nil {
			audience = msg.Audience.String()
		}
		fmt.Printf("[%8.2f] entity %d (%s): %s\n", msg.Clock().Seconds(), msg.SenderID, audience, msg.Text)
	}
	return nil
}

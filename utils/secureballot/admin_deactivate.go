package main

import (
	"log"

	"github.com/Onyex101/secureballot-sub006/store"
	"github.com/gookit/color"
	"github.com/urfave/cli"
)

func actionAdminDeactivate(c *cli.Context) error {
	electionID := c.Args().First()
	adminID := c.String("by")
	if electionID == "" || adminID == "" {
		log.Fatal("usage: secureballot admin deactivate --by=<admin-id> <election-id>")
	}

	if err := manager.DeactivateElectionKeys(electionID, adminID); err != nil {
		log.Fatal(err)
	}

	auditEvent(adminID, store.EventKeyDeactivation, map[string]string{
		"electionId": electionID,
	})

	color.Warn.Printf("Election %s keys deactivated. No further votes can be sealed for it.\n", electionID)
	return nil
}

func actionAdminVerifyKey(c *cli.Context) error {
	electionID := c.Args().First()
	if electionID == "" {
		log.Fatal("usage: secureballot admin verify-key <election-id>")
	}

	if manager.VerifyElectionKeyIntegrity(electionID) {
		color.Printf("Key integrity for election %s: <suc>OK</>\n", electionID)
	} else {
		color.Printf("Key integrity for election %s: <error>FAILED</> - do not trust this key\n", electionID)
	}
	return nil
}

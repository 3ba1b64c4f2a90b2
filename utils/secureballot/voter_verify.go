package main

import (
	"fmt"
	"log"

	"github.com/gookit/color"
	"github.com/urfave/cli"
)

func actionVoterVerify(c *cli.Context) error {
	receiptCode := c.Args().First()
	if receiptCode == "" {
		log.Fatal("usage: secureballot voter verify <receipt-code>")
	}

	status := manager.VerifyByReceipt(receiptCode)
	if !status.IsValid {
		color.Printf("<error>No vote was recorded under this receipt code.</>\n")
		return nil
	}

	color.Printf("<suc>Your vote was recorded.</>\n")
	if status.ElectionName != "" {
		fmt.Println("Election:", status.ElectionName)
	} else {
		fmt.Println("Election:", status.ElectionID)
	}
	if status.VoteTimestamp != nil {
		fmt.Println("Cast at:", status.VoteTimestamp.Format("2006-01-02 15:04:05 MST"))
	}
	if status.IsProcessed {
		fmt.Println("Status: counted")
	} else {
		fmt.Println("Status: recorded, not yet counted")
	}
	return nil
}

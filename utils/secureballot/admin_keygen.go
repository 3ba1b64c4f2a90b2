package main

import (
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/Onyex101/secureballot-sub006/store"
	"github.com/cryptoballot/entropychecker"
	"github.com/gookit/color"
	"github.com/urfave/cli"
)

func actionAdminSetupDB(c *cli.Context) error {
	if err := pgStore.SetUp(); err != nil {
		log.Fatal("Error loading database schema: ", err)
	}
	fmt.Println("Database set-up complete.")
	return nil
}

func actionAdminKeygen(c *cli.Context) error {
	electionID := c.Args().First()
	adminID := c.String("by")
	if electionID == "" || adminID == "" {
		log.Fatal("usage: secureballot admin keygen --by=<admin-id> <election-id>")
	}

	// If we are on linux, ensure we have sufficient entropy before
	// generating key material.
	if runtime.GOOS == "linux" {
		if err := entropychecker.WaitForEntropy(); err != nil {
			log.Fatal(err)
		}
	}

	view, err := manager.GenerateElectionKeyPair(electionID, adminID)
	if err != nil {
		log.Fatal(err)
	}

	// The manager returns no private material; the share tokens come from
	// the key record and exist to be handed to their key-holders now.
	rec, err := pgStore.LoadKeyRecord(electionID)
	if err != nil {
		log.Fatal(err)
	}

	auditEvent(adminID, store.EventKeyGeneration, map[string]string{
		"electionId":           electionID,
		"publicKeyFingerprint": view.PublicKeyFingerprint,
		"shareCount":           fmt.Sprint(view.ShareCount),
		"threshold":            fmt.Sprint(view.Threshold),
	})

	color.Printf("Key pair generated for election <suc>%s</>\n", electionID)
	fmt.Println("Public key fingerprint:", view.PublicKeyFingerprint)
	fmt.Printf("Shares issued: %d, reconstruction quorum: %d\n\n", view.ShareCount, view.Threshold)

	color.Warn.Println("Distribute one share token per key-holder. They are not shown again.")
	for _, s := range rec.PrivateKeyShares {
		fmt.Println(s.Token())
	}
	return nil
}

// auditEvent reports an administrative action to the audit log. Audit
// failures are logged, never fatal: the action itself already happened.
func auditEvent(actorID, eventType string, details map[string]string) {
	ev := store.AuditEvent{
		ActorID:   actorID,
		EventType: eventType,
		Details:   details,
		At:        time.Now().UTC(),
	}
	if err := pgStore.RecordEvent(ev); err != nil {
		log.Printf("WARNING: could not record audit event %s: %v", eventType, err)
	}
}

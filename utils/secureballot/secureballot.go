package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/Onyex101/secureballot-sub006/election"
	"github.com/Onyex101/secureballot-sub006/store"
	_ "github.com/lib/pq"
	"github.com/urfave/cli"
)

// Version specifies the version of this binary
var Version = "0.1"

var (
	conf    *Config
	db      *sql.DB
	pgStore *store.PG
	manager *election.Manager
)

func main() {
	app := cli.NewApp()
	app.Name = "secureballot"
	app.Usage = "administer election key pairs, tally sealed votes and verify voter receipts"

	// Global options
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Value: "./secureballot.conf",
			Usage: "path to the config file",
		},
	}

	// Commands
	app.Commands = []cli.Command{
		{
			Name:  "admin",
			Usage: "perform election administrative operations",
			Subcommands: []cli.Command{
				{
					Name:      "setup-db",
					Usage:     "set up fresh database tables and schema; run once before normal operations",
					Action:    actionAdminSetupDB,
					ArgsUsage: " ",
				},
				{
					Name:      "keygen",
					Usage:     "generate the key pair for an election and print the key shares",
					ArgsUsage: "[election-id]",
					Action:    actionAdminKeygen,
					Flags: []cli.Flag{
						cli.StringFlag{Name: "by", Usage: "administrator identity recorded on the key record"},
					},
				},
				{
					Name:      "deactivate",
					Usage:     "retire an election's key pair; sealing stops until a new pair exists",
					ArgsUsage: "[election-id]",
					Action:    actionAdminDeactivate,
					Flags: []cli.Flag{
						cli.StringFlag{Name: "by", Usage: "administrator identity recorded in the audit log"},
					},
				},
				{
					Name:      "verify-key",
					Usage:     "check that an election's stored public key matches its fingerprint",
					ArgsUsage: "[election-id]",
					Action:    actionAdminVerifyKey,
				},
				{
					Name:      "tally",
					Usage:     "reconstruct the election private key, decrypt all sealed votes and count them",
					ArgsUsage: "[election-id]",
					Action:    actionAdminTally,
					Flags: []cli.Flag{
						cli.StringFlag{Name: "shares", Usage: "path to a file with one key share token per line"},
						cli.StringFlag{Name: "key", Usage: "path to a PEM private key (bypasses share reconstruction)"},
						cli.StringFlag{Name: "by", Usage: "administrator identity recorded in the audit log"},
						cli.StringFlag{Name: "reason", Usage: "stated reason for unsealing, recorded in the audit log"},
					},
				},
			},
		},
		{
			Name:  "voter",
			Usage: "voter-facing operations",
			Subcommands: []cli.Command{
				{
					Name:      "verify",
					Usage:     "check a vote receipt code",
					ArgsUsage: "[receipt-code]",
					Action:    actionVoterVerify,
				},
			},
		},
		{
			Name:  "version",
			Usage: "print version",
			Action: func(c *cli.Context) error {
				fmt.Println(Version)
				return nil
			},
		},
	}

	// Load config and connect to the database before any command runs.
	app.Before = func(c *cli.Context) error {
		var err error
		conf, err = NewConfig(c.GlobalString("config"))
		if err != nil {
			return err
		}

		db, err = sql.Open("postgres", conf.databaseConnectionString())
		if err != nil {
			return err
		}
		if err = db.Ping(); err != nil {
			return err
		}
		if conf.database.maxIdleConnections != -1 {
			db.SetMaxIdleConns(conf.database.maxIdleConnections)
		}

		pgStore = store.NewPG(db)
		manager = election.NewManager(pgStore, pgStore, pgStore, pgStore, election.Config{
			KeySize:    conf.keySize,
			ShareCount: conf.shareCount,
			Threshold:  conf.threshold,
		})
		return nil
	}

	app.Version = Version
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"pajal/domain"
	"pajal/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH"`
	// INSPECT_COLOURS enables coloured statuses
	Colours bool `envconfig:"INSPECT_COLOURS" default:"true"`
}

var statusColours = map[domain.ClassStatus]color.Style{
	domain.Belum:   color.New(color.FgBlue),
	domain.Segera:  color.New(color.FgYellow),
	domain.Aktif:   color.New(color.FgGreen, color.OpBold),
	domain.Selesai: color.New(color.FgGray),
	domain.Batal:   color.New(color.FgRed),
}

func main() {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		log.Fatal("Config error: ", err)
	}
	if config.BadgerFilepath == "" {
		config.BadgerFilepath = database.DefaultPath
	}
	dbPath := flag.String("db", config.BadgerFilepath, "Path to badger DB")
	what := flag.String("show", "classes", "What to list: classes, users or notifications")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	// Legacy data must be upgraded by the service first, a read-only db cannot take the write back.
	state, err := repositories.NewStateRepository(repositories.NewBadgerStore(db), slog.Default()).LoadState()
	if err != nil {
		log.Fatal(err)
	}

	table := newTable()
	switch *what {
	case "classes":
		table.SetHeader([]string{"ID", "Name", "Cohorts", "Start", "End", "Room", "Lecturers", "Status"})
		for _, c := range state.Classes {
			table.Append([]string{
				c.ID, c.Name, strings.Join(c.ClassTypes, ","),
				c.Start.Format("2006-01-02 15:04"), c.End.Format("15:04"),
				c.Location, strings.Join(c.Lecturers, ", "), status(c.Status, config.Colours),
			})
		}
	case "users":
		table.SetHeader([]string{"ID", "Username", "Name", "Role", "NIM/NIP", "Cohort", "State"})
		for _, u := range state.Users {
			table.Append([]string{u.ID, u.Username, u.Name, string(u.Role), u.NimNip, u.Cohort(), string(u.State)})
		}
	case "notifications":
		table.SetHeader([]string{"ID", "Kind", "Date", "Message", "Read by"})
		for _, n := range state.Notifications {
			table.Append([]string{n.ID, string(n.Kind), n.Date.Format("2006-01-02 15:04:05"), n.Message, fmt.Sprint(len(n.ReadBy))})
		}
	default:
		log.Fatalf("unknown -show value %q", *what)
	}
	table.Render()
}

func status(s domain.ClassStatus, colours bool) string {
	style, ok := statusColours[s]
	if !colours || !ok {
		return string(s)
	}
	return style.Render(string(s))
}

func newTable() *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}

// Command dbcheck inspects an exported WeChat message store before a long
// archive run: per-type row counts for a chat table, the covered time range,
// and whether the Friend contact directory is usable.
//
// Usage:
//
//	dbcheck -db path/to/MM.sqlite -table Chat_<hash>
//
// Exit codes:
//
//	0 - Store opened and the table looks queryable
//	1 - Store or table problems
//	2 - Bad invocation
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"regexp"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var tablePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func main() {
	dbPath := flag.String("db", "", "Path to MM.sqlite")
	table := flag.String("table", "", "Conversation table name (Chat_<hash>)")
	bias := flag.Int64("bias", 0, "Timestamp bias in seconds, added when printing times")
	flag.Parse()

	if *dbPath == "" || *table == "" {
		fmt.Fprintln(os.Stderr, "Usage: dbcheck -db path/to/MM.sqlite -table Chat_<hash>")
		os.Exit(2)
	}
	if !tablePattern.MatchString(*table) {
		fmt.Fprintf(os.Stderr, "Error: invalid table name %q\n", *table)
		os.Exit(2)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", *dbPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	var total int
	if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", *table)).Scan(&total); err != nil {
		fmt.Fprintf(os.Stderr, "Error counting %s: %v\n", *table, err)
		os.Exit(1)
	}
	fmt.Printf("%s: %d messages\n", *table, total)

	var minT, maxT sql.NullInt64
	if err := db.QueryRow(fmt.Sprintf("SELECT MIN(CreateTime), MAX(CreateTime) FROM %s", *table)).Scan(&minT, &maxT); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading time range: %v\n", err)
		os.Exit(1)
	}
	if minT.Valid && maxT.Valid {
		from := time.Unix(minT.Int64+*bias, 0).Format("2006-01-02")
		to := time.Unix(maxT.Int64+*bias, 0).Format("2006-01-02")
		fmt.Printf("covers %s to %s\n", from, to)
	}

	rows, err := db.Query(fmt.Sprintf("SELECT Type, COUNT(*) FROM %s GROUP BY Type ORDER BY COUNT(*) DESC", *table))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error counting types: %v\n", err)
		os.Exit(1)
	}
	defer rows.Close()

	type typeCount struct {
		tag int
		n   int
	}
	var counts []typeCount
	for rows.Next() {
		var tc typeCount
		if err := rows.Scan(&tc.tag, &tc.n); err != nil {
			fmt.Fprintf(os.Stderr, "Error scanning type count: %v\n", err)
			os.Exit(1)
		}
		counts = append(counts, tc)
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading type counts: %v\n", err)
		os.Exit(1)
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].n > counts[j].n })
	for _, tc := range counts {
		fmt.Printf("  type %6d: %d\n", tc.tag, tc.n)
	}

	var friends int
	if err := db.QueryRow("SELECT COUNT(*) FROM Friend").Scan(&friends); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Friend table not readable: %v\n", err)
		fmt.Println("contact resolution will fall back to raw identifiers")
		return
	}
	fmt.Printf("Friend: %d contacts\n", friends)
}

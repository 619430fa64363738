package database

import _ "embed"

// RepairSQL recreates the tables, seeds the default settings row and opens the
// covers bucket policy. Operators run it when uploads or refreshes fail on
// permissions or id types.
//
//go:embed repair.sql
var RepairSQL string

// Package inventory parses the two system-state snapshots a resolution run starts from:
// the installed fileset levels (lslpp -Lcq) and the installed interim fixes (emgr -lv3).
//
// Both tables are built once per run and are read-only afterwards.
package inventory

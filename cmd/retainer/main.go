// Retainer archives expired chat messages, restores archived realms and
// cleans up the archive.
//
// Messages older than their realm's retention window are moved, together
// with their user messages and attachments, into archive tables. Archived
// rows are deleted for good after a global number of days, and attachment
// blobs that nothing references any more are removed from storage.
//
// Usage:
//
//	# Create the live and archive tables
//	retainer migrate --config retainer.yaml
//
//	# Run the archive pipeline once
//	retainer archive --progress
//
//	# Bring a realm's archived data back
//	retainer restore 42
//
//	# Delete expired archive rows and orphaned blobs
//	retainer janitor
//
//	# Run both on their cron schedules and serve metrics and health probes
//	retainer run
//
//	# Show table sizes and the next scheduled runs
//	retainer status --output json
package main

func main() {
	Execute()
}

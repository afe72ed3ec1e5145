// Package pattern implements the regex-based structured-identifier detector.
//
// # Overview
//
// The detector ships a built-in rule set covering common structured PII
// (emails, phone numbers, national identifiers, card numbers, addresses) and
// can be extended with custom rule packs: YAML manifests loaded from a
// directory, validated and merged over the built-ins. A filesystem watcher
// re-loads packs when manifests change, so rule updates do not require a
// restart.
//
// # Usage
//
//	det := pattern.New(nil)
//	entities, _ := det.Detect(ctx, "reach me at a@b.com")
//
//	packs, _ := pattern.LoadPackDir("/etc/veil/packs", log)
//	det.SetPacks(packs)
//
// Detection is deterministic: within the detector, overlapping matches are
// resolved by keeping the higher-confidence rule.
package pattern

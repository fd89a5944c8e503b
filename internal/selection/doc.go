// Package selection groups parsed candidates by canonical game identity and
// deterministically picks at most one winner per group under an ordered
// tie-break chain, recording runner-ups and exclusions for the audit log.
package selection

// Package password derives and checks Argon2id password verifiers.
//
// Verifiers are self-describing PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<key>
//
// Each verifier carries its own salt and cost parameters, so changing [Config]
// only affects verifiers created afterwards.
//
// Length and content policy is not enforced here; the caller decides what a
// permissible password is. Plaintext is never retained or logged.
package password

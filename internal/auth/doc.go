// Package auth provides user accounts and access tokens for the API.
//
// Accounts are identified by email with Argon2id-hashed passwords stored
// in PHC string format. Access is granted through short-lived HS256 JWT
// tokens whose subject is the account's numeric ID; there is no session
// state beyond the token itself.
package auth

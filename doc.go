// Package authclient is the client side session core: it logs a user in
// against a remote authentication service, keeps the issued credential on
// the device and gates administrative screens by the role carried in it.
//
// Session lifecycle:
//   - Manager.Login posts the credentials through an Authenticator (Client by
//     default), persists the credential in a store.Store and then checks its
//     role against the permitted set (AdminRoles unless configured).
//   - Manager.CurrentUser re-reads and decodes the stored credential on every
//     call. Anything that cannot be decoded is treated as no session.
//   - Manager.Logout clears the store. It never talks to the network.
//
// Claims:
//   - Decode reads the payload segment without checking the signature. Use
//     NewVerifiedDecoder with HMACKeyfunc or JWKSKeyfunc when the issuer key
//     is available to the client.
//
// Navigation:
//   - Gate maps routes to permitted roles. LogoutFlow is the two step logout
//     dialog that only clears the session after an explicit confirm.
//
// Activity sinks:
//   - ActivitySink receives login, logout and invalid session events. Sinks
//     run best-effort (errors are logged).
package authclient

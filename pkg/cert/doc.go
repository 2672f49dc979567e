// Package cert provisions the trust anchors used to verify the SMTP
// server's certificate chain during the STARTTLS upgrade.
//
// Provisioning is platform-dependent: on Windows the system ROOT store
// is enumerated certificate by certificate; elsewhere the TLS library's
// default trust paths are used. Both variants sit behind the single
// Provisioner interface so the handshake logic stays free of platform
// conditionals. File and static provisioners support custom anchors and
// tests.
package cert

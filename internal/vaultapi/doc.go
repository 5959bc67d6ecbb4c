// Package vaultapi provides typed operations against the Secure File Vault API.
//
// Every call goes through an apiclient.Client, so credential attachment and forced
// logout on 401 apply uniformly. Payload shapes are decoded leniently and not
// validated beyond that.
package vaultapi

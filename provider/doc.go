/*

Content providers for placeholder resolution.

A Provider maps a constructed path to substitutable content. The resolver
consumes the single Fetch call; everything about how content is actually
located (a directory tree, an in-memory registry, Consul KV, Vault) belongs
to the implementations here, along with the client plumbing the networked
ones need.

*/
package provider

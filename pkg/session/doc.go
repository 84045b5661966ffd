/*
Package session provides the in-memory session store backing cookie
authentication.

The HTTP login handler creates sessions; the realtime authenticator consumes
only the narrow Lookup half of the store, so it never learns about creation
or expiry mechanics. Sessions carry a TTL and are swept in the background;
an expired session is indistinguishable from an unknown one.
*/
package session

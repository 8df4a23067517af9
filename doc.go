/*
The Luacat library.

This library renders text content by substituting {#:path:#} placeholder
tokens. Each placeholder resolves against a caller-supplied environment of
nested values, or executes an embedded Lua fragment, or fetches content
from an external provider by path; anything unresolved renders as an
inline diagnostic so a render never fails.

A simple example of how you might use this library to render one piece of
content against an environment is in the package examples.
*/
package lcat

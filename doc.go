// Package epollweb is a minimal HTTP/1.0 static file server built on a
// single threaded, level triggered epoll event loop. Each connection reads
// one request, gets one response and is closed.
package epollweb

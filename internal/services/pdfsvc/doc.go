// Package pdfsvc is the client for the post-processing document service.
//
// Every transform follows the same server-side shape: submit an operation
// against an uploaded document, receive a task handle, poll the task at a
// fixed interval until it completes or the poll budget runs out, then
// address the result document. Submission is retried a small fixed number
// of times on transient failures; polling is not.
package pdfsvc

// Package mot owns the MOT object model and the header and directory
// codecs built on the parameter wire contract.
//
// Ownership boundary:
// - content types and the Object aggregate
// - core header (body size, header size, content type)
// - header segment decode/encode
// - directory segment decode/encode
package mot

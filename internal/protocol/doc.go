// Package protocol defines the commands exchanged between nodes and their
// framed wire encoding.
//
// Commands are the sole inter-component message type. Every command
// implements Execute against the receiving node's Environment (store,
// operator registry, worker executor, membership view); point commands
// additionally implement Route, which resolves the owning node at the
// originating side and forwards the command to it.
//
// Wire format, stable across the ensemble:
//
//	request:  uint32 big-endian body length | tag byte | JSON body
//	reply:    uint32 big-endian body length | status byte | JSON body
//
// A status byte of 0x00 carries a Result body; 0x01 carries an
// ErrorMessage body. Predicates travel as "type:expression" strings and
// are re-resolved against the receiving node's registry, which is
// boot-identical on every node.
package protocol

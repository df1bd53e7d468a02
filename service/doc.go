// Package service implements the plant, room and watering operations on top
// of an interfaces.DocumentStore.
//
// Every operation is a fixed sequence of independent store calls. Nothing
// here locks, retries or opens a transaction, so sequences that check and
// then write keep their race windows:
//
//   - Create checks (ownerId, name) uniqueness with a query and then inserts;
//     two concurrent creates can both insert.
//   - GetOrCreateLog queries for a plant's watering log and creates one when
//     none exists; two concurrent first accesses can create two logs, after
//     which callers use whichever the store returns first.
//   - WateringService.Update rewrites the whole records array; the last
//     writer wins and concurrent edits to the same log are lost.
//
// The store's single-document ArrayUnion and ArrayRemove are the only atomic
// multi-step operations available, and Append and Remove rely on them.
package service

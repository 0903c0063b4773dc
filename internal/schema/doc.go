// Package schema assembles textual fragments into one schema.
//
// Structures (types, interfaces, inputs and enums) and operations (queries,
// mutations and subscriptions) are registered on a Builder. Build orders the
// structures so every parent and implemented interface precedes the
// structures built on it, merges inherited bodies, checks that every
// referenced type exists and composes each operation's handler with its hook
// chain. The result is the schema text, a resolver map and a type resolver
// per interface.
//
//	b := schema.New()
//	b.Interface("List").Define("offset: Int")
//	b.Type("Posts").Implements("List").Define("title: String")
//	b.Query("posts: Posts").Resolve(listPosts)
//	out, err := b.Build(ctx)
package schema

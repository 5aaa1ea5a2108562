// Package env holds the variable scopes of a scenario run and resolves
// {{name}} tokens against them.
//
// It provides:
//   - Vars: an ordered variable table whose key set is fixed once built
//   - Scope: the scenario tier (one per document) over the environment tier
//     (one per run, shared by every document)
//   - Resolver: {{name}} and {{$dynamic}} token substitution
//   - LoadDotEnv / LoadEnvironment: building the environment tier from the
//     test config and .env files
package env

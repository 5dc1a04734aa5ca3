// Package lists implements the mailing-list manager: list and tag CRUD,
// record maintenance and the advanced list search.
//
// Search loads the organization's list snapshot (from the snapshot cache
// when warm) and hands it to listquery, which does all filtering, sampling,
// sorting and paging in memory. Every mutation invalidates the cached
// snapshot for the organization.
//
// The service depends only on the interfaces in repository.go and cache.go.
// Postgres implementations live in repository/postgres.
package lists

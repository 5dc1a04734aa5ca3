// Package campaign tracks the mail drops made from each list.
//
// A campaign is created scheduled, moves to mailed when the vendor reports
// the drop and to completed once delivery wraps up; a scheduled campaign
// may be cancelled instead. Its dates feed the mailing-history filter of the
// list manager, so every write drops the organization's list snapshot.
//
// Repository implementations live in repository/postgres/.
package campaign

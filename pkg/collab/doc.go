// Package collab computes the audience of a notification rule for a
// document: the ordered, deduplicated set of users considered subscribed
// to the document's activity.
//
// The resolver combines the document's own collaborator list (when its
// class declares the collaborator capability), space membership for
// space-subscribed rules, the ownership filter for onlyOwn rules, the
// author exclusion and per-user class mutes. An empty result means no
// notification and is not an error.
package collab

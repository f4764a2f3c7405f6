// Package rbac holds the portal's permission vocabulary and the seeding of
// verbs, resources, permissions and the admin role.
//
// A permission code is "<resource>:<verb>" where the resource is a leaf of a
// two-level tree such as "system:role". Holding "<resource>:*" grants every
// verb on that resource.
//
// # Seeding
//
// Seeding is idempotent. The built-in document from DefaultSeed can be
// replaced section by section with a YAML file:
//
//	verbs:
//	  - action: read
//	    display_name: Read
//	parents:
//	  - id: b46586f5-7e43-4eed-9f44-fecff64c9b1d
//	    code: system
//	    key: SYSTEM
//	    name: System
//	    type: system
//	resources:
//	  - code: system:user
//	    key: SYSTEM_USER
//	    name: Users
//	admin:
//	  code: admin
//	  name: Administrator
//	  excluded_prefixes: ["system:resource:"]
package rbac

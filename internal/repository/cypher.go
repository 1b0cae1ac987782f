package repository

// Cypher statements. Users, entities, transactions, and alerts are nodes;
// links are LINKED_TO relationships carrying strength and firstSeen.
// Link inserts use CREATE rather than MERGE: repeat observations of the
// same (user, entity) pair are kept as separate rows.

const insertUserCypher = `
CREATE (u:User {userId: $userId})
SET u += $props
RETURN u.userId AS userId
`

const userReturnClause = `
RETURN u.userId AS userId,
       u.name AS name,
       u.email AS email,
       u.accountType AS accountType,
       u.flagged AS flagged,
       u.riskScore AS riskScore,
       u.status AS status,
       u.lastLoginIp AS lastLoginIp,
       u.walletAddress AS walletAddress,
       u.profileJson AS profileJson,
       u.createdAt AS createdAt
`

const getUserCypher = `
MATCH (u:User {userId: $userId})
` + userReturnClause

const getUsersCypher = `
MATCH (u:User)
WHERE u.userId IN $userIds
` + userReturnClause

const sampleUsersCypher = `
MATCH (u:User)
WITH u ORDER BY u.createdAt
LIMIT $limit
` + userReturnClause

const updateUserStatusCypher = `
MATCH (u:User {userId: $userId})
SET u.status = $status
CREATE (act:Action {
	actionId: $actionId,
	type: $actionType,
	executedBy: $executedBy,
	executedAt: $executedAt,
	result: $result,
	notes: $notes
})
CREATE (act)-[:TARGETS]->(u)
RETURN u.userId AS userId
`

const insertEntityCypher = `
CREATE (e:Entity {entityId: $entityId})
SET e += $props
RETURN e.entityId AS entityId
`

const entityReturnClause = `
RETURN e.entityId AS entityId,
       e.type AS type,
       e.value AS value,
       e.riskLevel AS riskLevel,
       e.lastActive AS lastActive
`

const getEntityCypher = `
MATCH (e:Entity {entityId: $entityId})
` + entityReturnClause

const getEntitiesCypher = `
MATCH (e:Entity)
WHERE e.entityId IN $entityIds
` + entityReturnClause

const insertLinkCypher = `
MATCH (u:User {userId: $userId})
MATCH (e:Entity {entityId: $entityId})
CREATE (u)-[l:LINKED_TO {linkId: $linkId, strength: $strength, firstSeen: $firstSeen}]->(e)
RETURN l.linkId AS linkId
`

const linksByUserCypher = `
MATCH (u:User {userId: $userId})-[l:LINKED_TO]->(e:Entity)
RETURN l.linkId AS linkId,
       u.userId AS userId,
       e.entityId AS entityId,
       l.strength AS strength,
       l.firstSeen AS firstSeen
`

const linksByEntityCypher = `
MATCH (u:User)-[l:LINKED_TO]->(e:Entity {entityId: $entityId})
RETURN l.linkId AS linkId,
       u.userId AS userId,
       e.entityId AS entityId,
       l.strength AS strength,
       l.firstSeen AS firstSeen
`

const insertTransactionCypher = `
MATCH (u:User {userId: $userId})
CREATE (t:Transaction {transactionId: $transactionId})
SET t += $props
CREATE (u)-[:MADE]->(t)
RETURN t.transactionId AS transactionId
`

const insertAlertCypher = `
MATCH (u:User {userId: $userId})
CREATE (a:Alert {alertId: $alertId})
SET a += $props
CREATE (u)-[:TRIGGERED]->(a)
RETURN a.alertId AS alertId
`

const alertReturnClause = `
RETURN a.alertId AS alertId,
       a.userId AS userId,
       a.trigger AS trigger,
       a.riskScore AS riskScore,
       a.amount AS amount,
       a.status AS status,
       a.createdAt AS createdAt,
       a.isRealtime AS isRealtime,
       a.attackBatchId AS attackBatchId,
       a.evidenceTxIds AS evidenceTxIds
`

const getAlertCypher = `
MATCH (a:Alert {alertId: $alertId})
` + alertReturnClause

const listAlertsCypher = `
MATCH (a:Alert)
OPTIONAL MATCH (u:User {userId: a.userId})
` + alertReturnClause + `,
       u.name AS userName
ORDER BY a.createdAt DESC
LIMIT $limit
`
